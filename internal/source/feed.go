package source

import (
	"image"
	"sync"

	"github.com/san-kum/qwave/internal/dynamo"
)

// Feed holds the most recently pushed frame. It reports
// ErrSourceUnavailable until the first Push.
type Feed struct {
	mu   sync.RWMutex
	w, h int
	img  *image.NRGBA
	name string
}

func NewFeed(w, h int) *Feed {
	return &Feed{w: w, h: h, name: "feed"}
}

// Push scales img to cover the grid and makes it the current frame.
func (f *Feed) Push(name string, img image.Image) {
	scaled := Cover(img, f.w, f.h)
	f.mu.Lock()
	f.img = scaled
	f.name = name
	f.mu.Unlock()
}

func (f *Feed) Frame() (image.Image, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.img == nil {
		return nil, dynamo.ErrSourceUnavailable
	}
	return f.img, nil
}

func (f *Feed) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}
