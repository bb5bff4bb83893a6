package util

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-smooth/images"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ImageFile represents an image file found on disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Name is the file name without directory or extension.
	Name string
	// Format is inferred from the extension.
	Format images.ImageFormat
	// Frame is the number trailing Name ("galactic3" -> 3, "frame-0012" -> 12), or -1.
	Frame int
}

// ListImageFiles returns the image files directly inside dir, ordered by the
// name stem and then numerically by Frame so that "x2" sorts before "x10".
// Files whose extension is not a supported format are ignored.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The matching files, possibly empty.
// - error: Error if the directory cannot be read.
func ListImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list images in %s", dir)
	}

	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (ImageFile, bool) {
		if e.IsDir() {
			return ImageFile{}, false
		}
		format, err := images.FormatFromPath(e.Name())
		if err != nil {
			return ImageFile{}, false
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		return ImageFile{
			Path:   filepath.Join(dir, e.Name()),
			Name:   name,
			Format: format,
			Frame:  trailingNumber(name),
		}, true
	})

	slices.SortStableFunc(files, func(a, b ImageFile) int {
		if c := strings.Compare(stem(a.Name), stem(b.Name)); c != 0 {
			return c
		}
		if a.Frame != b.Frame {
			return a.Frame - b.Frame
		}
		return strings.Compare(a.Path, b.Path)
	})

	return files, nil
}

func stem(name string) string {
	return strings.TrimRight(name, "0123456789")
}

func trailingNumber(name string) int {
	digits := name[len(stem(name)):]
	if digits == "" {
		return -1
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1
	}
	return n
}
