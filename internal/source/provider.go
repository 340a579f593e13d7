package source

import (
	"fmt"
	"image"
	"strings"
)

// Provider supplies the current backdrop. Frame returns
// dynamo.ErrSourceUnavailable while no frame exists.
type Provider interface {
	Frame() (image.Image, error)
	Name() string
}

// Parse builds a provider from a command-line spec:
//
//	noise            animated noise
//	pattern:<name>   generated mask
//	file:<path>      still image
//	none             empty feed
func Parse(spec string, w, h int, seed int64) (Provider, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "", "none":
		return NewFeed(w, h), nil
	case "noise":
		return NewNoise(w, h, seed), nil
	case "pattern":
		return NewPattern(arg, w, h)
	case "file":
		return OpenStill(arg, w, h)
	default:
		return nil, fmt.Errorf("unknown source %q (want noise, pattern:<name>, file:<path> or none)", spec)
	}
}
