package images

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// Checksum generates a deterministic checksum for a buffer to verify that two
// executions produced identical pixels.
//
// Arguments:
// - buf: The buffer to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string covering the dimensions and pixels.
//
// Example:
//
// ```go
//
//	if Checksum(parallel) != Checksum(sequential) {
//		return errors.New("outputs differ")
//	}
//
// ```
func Checksum(buf *PixelBuffer) string {
	if buf == nil || len(buf.Pix) == 0 {
		return "empty"
	}

	hash := md5.New()
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], uint32(buf.Width))
	hash.Write(word[:])
	binary.LittleEndian.PutUint32(word[:], uint32(buf.Height))
	hash.Write(word[:])

	row := make([]byte, buf.Width*4)
	for y := 0; y < buf.Height; y++ {
		for x, p := range buf.Pix[y*buf.Width : (y+1)*buf.Width] {
			binary.LittleEndian.PutUint32(row[x*4:], p&0x00FFFFFF)
		}
		hash.Write(row)
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
