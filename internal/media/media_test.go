package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestInspectImage(t *testing.T) {
	data := encodePNG(t, 40, 20)
	info := Inspect(data, "application/octet-stream")
	if info.ContentType != "image/png" {
		t.Fatalf("unexpected content type %q", info.ContentType)
	}
	if info.Width != 40 || info.Height != 20 {
		t.Fatalf("unexpected size %dx%d", info.Width, info.Height)
	}
	if info.Location != nil || info.CapturedAt != nil || info.Orientation != 0 {
		t.Fatalf("expected no EXIF data, got %+v", info)
	}
	meta := info.Metadata()
	if meta["width"] != 40 || meta["contentType"] != "image/png" {
		t.Fatalf("unexpected metadata %v", meta)
	}
}

func TestInspectFallsBackToDeclaredType(t *testing.T) {
	info := Inspect([]byte{0x00, 0x01, 0x02}, "audio/mpeg")
	if info.ContentType != "audio/mpeg" {
		t.Fatalf("expected declared type, got %q", info.ContentType)
	}
	if info.SizeBytes != 3 {
		t.Fatalf("unexpected size %d", info.SizeBytes)
	}
}

func TestThumbnailFitsBox(t *testing.T) {
	out, size, err := Thumbnail(encodePNG(t, 400, 200), 150, 90)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if size != image.Pt(150, 75) {
		t.Fatalf("unexpected size %v", size)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	if cfg.Width != 150 || cfg.Height != 75 {
		t.Fatalf("unexpected encoded size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	_, size, err := Thumbnail(encodePNG(t, 10, 8), 150, 90)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if size != image.Pt(10, 8) {
		t.Fatalf("unexpected size %v", size)
	}
}

func TestThumbnailRejectsNonImage(t *testing.T) {
	if _, _, err := Thumbnail([]byte("definitely not an image"), 10, 10); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApplyOrientationRotates(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	src.Set(0, 0, red)
	src.Set(1, 0, blue)

	rotated := applyOrientation(src, 6)
	if b := rotated.Bounds(); b.Dx() != 1 || b.Dy() != 2 {
		t.Fatalf("expected 1x2 after rotation, got %v", b)
	}
	if got := color.RGBAModel.Convert(rotated.At(0, 0)); got != red {
		t.Fatalf("expected red on top, got %v", got)
	}
	if got := color.RGBAModel.Convert(rotated.At(0, 1)); got != blue {
		t.Fatalf("expected blue at bottom, got %v", got)
	}

	if applyOrientation(src, 1) != image.Image(src) {
		t.Fatalf("orientation 1 must return the source")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		mediaType string
		url       string
		want      string
	}{
		{"picture", "https://cdn.test/picture/1-a.PNG", ".png"},
		{"video", "https://cdn.test/video/1-clip.webm?sig=abc", ".webm"},
		{"picture", "https://cdn.test/picture/noext", ".jpg"},
		{"video", "https://cdn.test/video/file.longext", ".mp4"},
		{"audio", "https://cdn.test/a", ".mp3"},
		{"sketch", "https://cdn.test/s", ".png"},
		{"document", "https://cdn.test/d", ".pdf"},
		{"other", "https://cdn.test/o", ".bin"},
	}
	for _, tt := range tests {
		if got := ExtensionFor(tt.mediaType, tt.url); got != tt.want {
			t.Fatalf("ExtensionFor(%q, %q) = %q, want %q", tt.mediaType, tt.url, got, tt.want)
		}
	}
}
