package images

import (
	"bufio"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DefaultJPEGQuality is used when FileCodec.Quality is unset.
const DefaultJPEGQuality = 90

var (
	// ErrImageDecode marks failures to read or decode an input image.
	ErrImageDecode = errors.New("image decode failed")
	// ErrImageEncode marks failures to encode or write an output image.
	ErrImageEncode = errors.New("image encode failed")
)

// PathError ties a codec failure to the file it happened on.
// errors.Is matches both the kind (ErrImageDecode, ErrImageEncode) and the cause.
type PathError struct {
	Kind error
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%v %q: %v", e.Kind, e.Path, e.Err)
}

func (e *PathError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Codec moves pixel buffers between files and memory.
type Codec interface {
	// Decode reads the image at path.
	Decode(path string) (*PixelBuffer, error)
	// Encode writes buf to path in the given format.
	Encode(buf *PixelBuffer, path string, format ImageFormat) error
}

// FileCodec is the filesystem Codec. PNG, JPEG and GIF come from the standard
// library, BMP and TIFF from golang.org/x/image and WebP from chai2010/webp.
type FileCodec struct {
	// Quality is the JPEG quality in [1, 100]; zero means DefaultJPEGQuality.
	Quality int `json:"quality" yaml:"quality"`
}

var _ Codec = (*FileCodec)(nil)

// Decode reads and decodes the image at path.
//
// Arguments:
// - path: The image file. The format is sniffed from its contents.
//
// Returns:
// - The decoded buffer, or a *PathError of kind ErrImageDecode.
//
// @example
// src, err := (&FileCodec{}).Decode("galactic1.jpg")
func (c *FileCodec) Decode(path string) (*PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PathError{Kind: ErrImageDecode, Path: path, Err: err}
	}
	defer f.Close()

	buf, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, &PathError{Kind: ErrImageDecode, Path: path, Err: err}
	}
	return buf, nil
}

// Encode writes buf to path. The image is first written to a temporary file in
// the destination directory and renamed into place, so a failed encode never
// leaves a partial output file behind.
//
// Arguments:
// - buf: The pixels to write.
// - path: The destination file.
// - format: The output format; empty means infer from the path's extension.
//
// Returns:
// - nil, or a *PathError of kind ErrImageEncode.
func (c *FileCodec) Encode(buf *PixelBuffer, path string, format ImageFormat) error {
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return &PathError{Kind: ErrImageEncode, Path: path, Err: err}
		}
		format = f
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".smooth-*"+format.Extension())
	if err != nil {
		return &PathError{Kind: ErrImageEncode, Path: path, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(cause error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &PathError{Kind: ErrImageEncode, Path: path, Err: cause}
	}

	w := bufio.NewWriter(tmp)
	if err := Write(w, buf, format, c.quality()); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PathError{Kind: ErrImageEncode, Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &PathError{Kind: ErrImageEncode, Path: path, Err: err}
	}
	return nil
}

func (c *FileCodec) quality() int {
	if c == nil || c.Quality <= 0 || c.Quality > 100 {
		return DefaultJPEGQuality
	}
	return c.Quality
}

// Read decodes any registered image format from r.
func Read(r io.Reader) (*PixelBuffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	return FromImage(img)
}

// Write encodes buf to w. WebP output is lossless so the packed pixels
// round-trip exactly; JPEG uses quality and GIF quantises to a palette.
func Write(w io.Writer, buf *PixelBuffer, format ImageFormat, quality int) error {
	img := buf.ToRGBA()

	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatGIF:
		err = gif.Encode(w, img, nil)
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatWebP:
		err = webp.Encode(w, img, &webp.Options{Lossless: true, Exact: true})
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	return errors.Wrapf(err, "encode %s", format)
}
