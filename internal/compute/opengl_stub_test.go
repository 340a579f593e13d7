//go:build !opengl

package compute

import (
	"errors"
	"testing"

	"github.com/san-kum/qwave/internal/dynamo"
)

func TestOpenGLUnavailableWithoutTag(t *testing.T) {
	if _, err := Select(NameOpenGL); !errors.Is(err, dynamo.ErrInitialization) {
		t.Errorf("expected ErrInitialization, got %v", err)
	}
	if b := AutoSelectBackend(); b.Name() != "cpu" {
		t.Errorf("auto should fall back to cpu, got %s", b.Name())
	}
}
