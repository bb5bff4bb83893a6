package images

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned for formats the codec cannot write.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

// Formats lists every format the codec can encode.
var Formats = []ImageFormat{FormatJPEG, FormatWebP, FormatPNG, FormatGIF, FormatBMP, FormatTIFF}

var extensions = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".webp": FormatWebP,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// ParseFormat resolves a format name or file extension ("jpg", ".png", "TIFF").
func ParseFormat(s string) (ImageFormat, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(key, ".") {
		key = "." + key
	}
	if f, ok := extensions[key]; ok {
		return f, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", s)
}

// FormatFromPath infers the format from a file name's extension.
func FormatFromPath(path string) (ImageFormat, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", errors.Wrapf(ErrUnsupportedFormat, "no extension in %q", path)
	}
	return ParseFormat(ext)
}

// Extension returns the canonical file extension, including the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatTIFF:
		return ".tiff"
	default:
		return "." + string(f)
	}
}

// Lossless reports whether encoding preserves every pixel exactly.
func (f ImageFormat) Lossless() bool {
	return f != FormatJPEG && f != FormatGIF
}
