package media

import (
	"net/url"
	"path"
	"strings"
)

// ExtensionFor picks the file extension for an exported attachment: the URL
// path suffix when it is 1-5 alphanumerics, otherwise a per-type default.
func ExtensionFor(mediaType, rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	if ext := strings.TrimPrefix(path.Ext(p), "."); isShortAlnum(ext) {
		return "." + strings.ToLower(ext)
	}
	switch mediaType {
	case "picture":
		return ".jpg"
	case "video":
		return ".mp4"
	case "audio":
		return ".mp3"
	case "sketch":
		return ".png"
	case "document":
		return ".pdf"
	default:
		return ".bin"
	}
}

func isShortAlnum(s string) bool {
	if len(s) == 0 || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
