// Package media inspects uploaded binaries: content type, image geometry,
// EXIF orientation, GPS position and capture time.
package media

import (
	"bytes"
	"image"
	_ "image/gif" // register decoders for DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"

	"incident-backend/internal/geo"
)

// Info describes an uploaded binary.
type Info struct {
	ContentType string
	SizeBytes   int
	Width       int
	Height      int
	// Orientation is the EXIF orientation tag (1-8); 0 when absent.
	Orientation int
	Location    *geo.Point
	CapturedAt  *time.Time
}

// Metadata flattens the info into the attachment metadata document.
func (i Info) Metadata() map[string]any {
	out := map[string]any{
		"contentType": i.ContentType,
		"sizeBytes":   i.SizeBytes,
	}
	if i.Width > 0 && i.Height > 0 {
		out["width"] = i.Width
		out["height"] = i.Height
	}
	if i.Orientation > 0 {
		out["orientation"] = i.Orientation
	}
	if i.CapturedAt != nil {
		out["capturedAt"] = i.CapturedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// Inspect sniffs data. declaredType is used when sniffing is inconclusive.
// EXIF is only read from images; missing or broken EXIF is not an error.
func Inspect(data []byte, declaredType string) Info {
	info := Info{
		ContentType: detectContentType(data, declaredType),
		SizeBytes:   len(data),
	}
	if !strings.HasPrefix(info.ContentType, "image/") {
		return info
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height = cfg.Width, cfg.Height
	}
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return info
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			info.Orientation = v
		}
	}
	if lat, lng, err := x.LatLong(); err == nil {
		p := geo.Point{Latitude: lat, Longitude: lng}
		if p.Validate() == nil {
			info.Location = &p
		}
	}
	if ts, err := x.DateTime(); err == nil {
		info.CapturedAt = &ts
	}
	return info
}

func detectContentType(data []byte, declared string) string {
	sniffed := http.DetectContentType(data)
	if sniffed != "application/octet-stream" && !strings.HasPrefix(sniffed, "text/plain") {
		return sniffed
	}
	if d := strings.TrimSpace(declared); d != "" {
		return d
	}
	return sniffed
}
