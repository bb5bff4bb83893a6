package images

import (
	"bytes"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genBuffer(t *testing.T, w, h int, seed int64) *PixelBuffer {
	buf, err := NewPixelBuffer(w, h)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := range buf.Pix {
		buf.Pix[i] = PackRGB(uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)))
	}
	return buf
}

func TestFileCodecLosslessRoundTrip(t *testing.T) {
	dir := t.TempDir()
	codec := &FileCodec{}
	src := genBuffer(t, 17, 11, 1)

	for _, format := range []ImageFormat{FormatPNG, FormatBMP, FormatTIFF, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(dir, "roundtrip"+format.Extension())
			require.NoError(t, codec.Encode(src, path, ""))

			got, err := codec.Decode(path)
			require.NoError(t, err)
			assert.True(t, src.Equal(got), "%s must preserve packed pixels exactly", format)
		})
	}
}

func TestFileCodecJPEG(t *testing.T) {
	dir := t.TempDir()
	codec := &FileCodec{Quality: 100}
	src := getTestBuffer(t, 32, 32)

	path := filepath.Join(dir, "red.jpg")
	require.NoError(t, codec.Encode(src, path, FormatJPEG))

	got, err := codec.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 32, got.Width)
	assert.Equal(t, 32, got.Height)

	r, g, b := UnpackRGB(got.RGB(16, 16))
	assert.InDelta(t, 255, int(r), 3)
	assert.InDelta(t, 0, int(g), 3)
	assert.InDelta(t, 0, int(b), 3)
}

func TestFileCodecDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	codec := &FileCodec{}

	missing := filepath.Join(dir, "missing.png")
	_, err := codec.Decode(missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageDecode)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), missing)

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = codec.Decode(garbage)
	assert.ErrorIs(t, err, ErrImageDecode)

	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, garbage, pathErr.Path)
}

func TestFileCodecEncodeErrorsLeaveNoFile(t *testing.T) {
	dir := t.TempDir()
	codec := &FileCodec{}
	src := getTestBuffer(t, 4, 4)

	// Unwritable location.
	err := codec.Encode(src, filepath.Join(dir, "no", "such", "dir", "out.png"), "")
	assert.ErrorIs(t, err, ErrImageEncode)

	// Unknown format: nothing may be left behind, including the temp file.
	out := filepath.Join(dir, "out.heic")
	err = codec.Encode(src, out, "")
	assert.ErrorIs(t, err, ErrImageEncode)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = codec.Encode(src, filepath.Join(dir, "out.png"), ImageFormat("heic"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed encodes must not leave partial files")
}

func TestReadWrite(t *testing.T) {
	src := genBuffer(t, 9, 5, 7)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src, FormatPNG, DefaultJPEGQuality))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, Checksum(src), Checksum(got))

	_, err = Read(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}
