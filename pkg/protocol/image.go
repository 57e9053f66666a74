package protocol

import (
	"path/filepath"
	"strings"
)

// MaxImageBytes is the maximum accepted image payload (10 MB).
const MaxImageBytes = 10 << 20

// ImageFormat identifies a recognized inline-image payload.
type ImageFormat int

const (
	ImageUnknown ImageFormat = iota
	ImagePNG
	ImageJPEG
	ImageGIF
	ImageWebP
)

func (f ImageFormat) String() string {
	switch f {
	case ImagePNG:
		return "PNG"
	case ImageJPEG:
		return "JPEG"
	case ImageGIF:
		return "GIF"
	case ImageWebP:
		return "WebP"
	default:
		return "unknown"
	}
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// SniffImage inspects the leading magic bytes and reports whether data is
// one of the accepted image formats. Binary frames that fail the sniff are
// dropped by the connection; outbound files that fail it are rejected
// before upload.
func SniffImage(data []byte) (ImageFormat, bool) {
	switch {
	case len(data) >= 8 && string(data[:8]) == string(pngMagic):
		return ImagePNG, true
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return ImageJPEG, true
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return ImageGIF, true
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return ImageWebP, true
	default:
		return ImageUnknown, false
	}
}

// IsImagePath reports whether a filename carries one of the accepted image
// extensions. Used to seed path completion; the authoritative check on send
// is always SniffImage on the file contents.
func IsImagePath(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	default:
		return false
	}
}
