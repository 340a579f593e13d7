package source

import (
	"image"
	"sync"

	"github.com/san-kum/qwave/internal/dynamo"
)

type Mode int

const (
	Primary Mode = iota
	Secondary
)

// Switch forwards to one of two providers, chosen by mode.
type Switch struct {
	mu        sync.RWMutex
	providers [2]Provider
	mode      Mode
}

func NewSwitch(primary, secondary Provider) *Switch {
	return &Switch{providers: [2]Provider{primary, secondary}}
}

func (s *Switch) SetMode(m Mode) {
	if m != Primary {
		m = Secondary
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

func (s *Switch) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Switch) Toggle() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = 1 - s.mode
	return s.mode
}

// SetProvider replaces the provider behind mode m.
func (s *Switch) SetProvider(m Mode, p Provider) {
	if m != Primary {
		m = Secondary
	}
	s.mu.Lock()
	s.providers[m] = p
	s.mu.Unlock()
}

func (s *Switch) active() Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.providers[s.mode]
}

func (s *Switch) Frame() (image.Image, error) {
	p := s.active()
	if p == nil {
		return nil, dynamo.ErrSourceUnavailable
	}
	return p.Frame()
}

func (s *Switch) Name() string {
	p := s.active()
	if p == nil {
		return "none"
	}
	return p.Name()
}
