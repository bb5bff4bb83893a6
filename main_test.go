package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-smooth/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGradient(t *testing.T, path string, w, h int) {
	buf, err := images.NewPixelBuffer(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetRGB(x, y, images.PackRGB(uint8(x*10), uint8(y*10), 0))
		}
	}
	require.NoError(t, (&images.FileCodec{}).Encode(buf, path, ""))
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestSmoothCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeGradient(t, in, 5, 5)

	for _, extra := range [][]string{nil, {"--sequential"}, {"--verify", "--workers", "2"}} {
		out := filepath.Join(dir, "out.png")
		args := append([]string{in, out, "3", "1"}, extra...)
		code, stdout, stderr := runCLI(t, args...)
		require.Equal(t, 0, code, stderr)
		assert.Contains(t, stdout, "mean filter took")
		assert.Contains(t, stdout, "wrote "+out)

		got, err := (&images.FileCodec{}).Decode(out)
		require.NoError(t, err)
		assert.Equal(t, uint32(0x141400), got.RGB(2, 2))
		assert.Equal(t, images.PackRGB(3, 3, 0), got.RGB(0, 0))
	}
}

func TestSmoothCommandFlags(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeGradient(t, in, 6, 6)
	out := filepath.Join(dir, "out.bin")

	code, stdout, stderr := runCLI(t, in, out, "3", "--filter", "median", "--edge", "skip", "--format", "bmp", "--quiet")
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	got, err := (&images.FileCodec{}).Decode(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got.RGB(0, 0), "skipped border stays black")
	assert.Equal(t, images.PackRGB(20, 20, 0), got.RGB(2, 2))
}

func TestSmoothCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeGradient(t, in, 4, 4)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"even width", []string{in, filepath.Join(dir, "a.png"), "4"}, "window width must be odd"},
		{"oversized width", []string{in, filepath.Join(dir, "j.png"), "9223372036854775807"}, "window width must be odd"},
		{"non-numeric width", []string{in, filepath.Join(dir, "b.png"), "wide"}, "not an integer"},
		{"zero cutoff", []string{in, filepath.Join(dir, "c.png"), "3", "0"}, "cutoff must be positive"},
		{"negative cutoff", []string{in, filepath.Join(dir, "d.png"), "3", "-4"}, "cutoff must be positive"},
		{"missing input", []string{filepath.Join(dir, "nope.png"), filepath.Join(dir, "e.png"), "3"}, "image decode failed"},
		{"unwritable output", []string{in, filepath.Join(dir, "no", "such", "f.png"), "3"}, "image encode failed"},
		{"unknown output format", []string{in, filepath.Join(dir, "g.heic"), "3"}, "unsupported image format"},
		{"bad filter", []string{in, filepath.Join(dir, "h.png"), "3", "--filter", "gaussian"}, "unknown filter method"},
		{"too few args", []string{in, filepath.Join(dir, "i.png")}, "accepts between 3 and 4 arg(s)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tc.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, "error: ")
			assert.Contains(t, stderr, tc.want)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed runs must not leave output files")
}

func TestResizeCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "galactic.png")
	writeGradient(t, in, 64, 32)
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	code, _, stderr := runCLI(t, "resize", in, "--levels", "2", "--out-dir", outDir, "--interp", "bilinear")
	require.Equal(t, 0, code, stderr)

	codec := &images.FileCodec{}
	big, err := codec.Decode(filepath.Join(outDir, "galactic2.png"))
	require.NoError(t, err)
	assert.Equal(t, 32, big.Width)
	assert.Equal(t, 16, big.Height)

	small, err := codec.Decode(filepath.Join(outDir, "galactic1.png"))
	require.NoError(t, err)
	assert.Equal(t, 16, small.Width)
	assert.Equal(t, 8, small.Height)

	code, _, stderr = runCLI(t, "resize", in, "--levels", "-1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error: ")
}

func TestBenchCommand(t *testing.T) {
	dir := t.TempDir()
	imgDir := filepath.Join(dir, "images")
	require.NoError(t, os.Mkdir(imgDir, 0o755))
	writeGradient(t, filepath.Join(imgDir, "galactic1.png"), 24, 16)
	outDir := filepath.Join(dir, "results")

	code, stdout, stderr := runCLI(t, "bench", "--images", imgDir, "--output", outDir, "--quick", "--iterations", "1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Results saved to")

	results, err := filepath.Glob(filepath.Join(outDir, "benchmark_results_*.json"))
	require.NoError(t, err)
	assert.Len(t, results, 1)

	cfgPath := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("iterations: 1\nwarmupRuns: 0\nwindowWidths: [3]\ncutoffs: [4]\ncutoffWidth: 3\n"), 0o644))
	code, _, stderr = runCLI(t, "bench", "--config", cfgPath, "--images", imgDir, "--output", outDir, "-q")
	require.Equal(t, 0, code, stderr)

	code, _, stderr = runCLI(t, "bench", "--output", outDir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "test images path is required")
}
