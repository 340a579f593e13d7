package sim

import (
	"image"
	"sync"
)

// FramePool recycles RGBA buffers for consumers that keep frames beyond
// the next orchestrator call (recorders, network broadcast).
type FramePool struct {
	pool sync.Pool
	rect image.Rectangle
}

func NewFramePool(w, h int) *FramePool {
	rect := image.Rect(0, 0, w, h)
	return &FramePool{
		rect: rect,
		pool: sync.Pool{
			New: func() interface{} {
				return image.NewRGBA(rect)
			},
		},
	}
}

func (p *FramePool) Get() *image.RGBA {
	return p.pool.Get().(*image.RGBA)
}

func (p *FramePool) Put(img *image.RGBA) {
	if img != nil && img.Rect == p.rect {
		p.pool.Put(img)
	}
}

// Clone copies src into a pooled buffer. src must have the pool's size.
func (p *FramePool) Clone(src *image.RGBA) *image.RGBA {
	dst := p.Get()
	if src.Rect == p.rect && src.Stride == dst.Stride {
		copy(dst.Pix, src.Pix)
		return dst
	}
	for y := 0; y < p.rect.Dy(); y++ {
		so := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		do := dst.PixOffset(0, y)
		copy(dst.Pix[do:do+p.rect.Dx()*4], src.Pix[so:so+p.rect.Dx()*4])
	}
	return dst
}
