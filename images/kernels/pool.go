package kernels

import (
	"sync"

	"github.com/nvr-ai/go-smooth/images"
)

// Pool lets callers reuse destination buffers across frames to reduce GC
// pressure. A nil *Pool is valid and always allocates.
type Pool struct {
	buffers sync.Pool // *images.PixelBuffer
}

// Get returns a zeroed buffer of the requested size.
func (p *Pool) Get(width, height int) (*images.PixelBuffer, error) {
	if p == nil {
		return images.NewPixelBuffer(width, height)
	}
	if v := p.buffers.Get(); v != nil {
		buf := v.(*images.PixelBuffer)
		if buf.Width == width && buf.Height == height {
			// Skip-mode borders rely on the destination starting black.
			clear(buf.Pix)
			return buf, nil
		}
	}
	return images.NewPixelBuffer(width, height)
}

// Put hands buf back for reuse. The caller must not touch it afterwards.
func (p *Pool) Put(buf *images.PixelBuffer) {
	if p == nil || buf == nil {
		return
	}
	p.buffers.Put(buf)
}
