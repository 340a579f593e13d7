//go:build !opengl

package compute

import "github.com/san-kum/qwave/internal/dynamo"

type OpenGLBackend struct{}

func NewOpenGLBackend() *OpenGLBackend {
	return &OpenGLBackend{}
}

func (g *OpenGLBackend) Name() string    { return "opengl (not available)" }
func (g *OpenGLBackend) Available() bool { return false }
func (g *OpenGLBackend) Cleanup()        {}

func (g *OpenGLBackend) Step(src, dst dynamo.Slot, pot *dynamo.Potential, p dynamo.Params) error {
	return dynamo.ErrInitialization
}
