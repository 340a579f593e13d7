package compute

import (
	"errors"
	"testing"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/physics"
)

func seededField(p dynamo.Params) (*dynamo.Field, *dynamo.Potential) {
	f := dynamo.NewField(p.Width, p.Height)
	f.Seed(dynamo.PacketFromParams(p))
	pot := dynamo.NewPotential(p.Width, p.Height)
	for i := range pot.V {
		pot.V[i] = float32(i%7) * 0.1
	}
	return f, pot
}

func TestCPUBackendMatchesSerialStep(t *testing.T) {
	p := dynamo.DefaultParams()
	p.Width, p.Height = 50, 37
	p.Time = 0.5 / p.SourceFrequency / 2

	for _, workers := range []int{1, 3, 8} {
		f, pot := seededField(p)
		want := dynamo.NewField(p.Width, p.Height)
		physics.Step(f.Current(), want.Current(), pot, p)

		b := NewCPUBackendWorkers(workers)
		if err := b.Step(f.Current(), f.Scratch(), pot, p); err != nil {
			t.Fatal(err)
		}
		got := f.Scratch()
		for i := range got.Re {
			if got.Re[i] != want.Current().Re[i] || got.Im[i] != want.Current().Im[i] {
				t.Fatalf("workers=%d: cell %d differs", workers, i)
			}
		}
	}
}

func TestCPUBackendShapeMismatch(t *testing.T) {
	f := dynamo.NewField(10, 10)
	pot := dynamo.NewPotential(12, 10)
	err := NewCPUBackend().Step(f.Current(), f.Scratch(), pot, dynamo.DefaultParams())
	if !errors.Is(err, dynamo.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	b, err := Select(NameCPU)
	if err != nil || b.Name() != "cpu" {
		t.Fatalf("cpu: %v %v", b, err)
	}

	b, err = Select(NameAuto)
	if err != nil || b == nil || !b.Available() {
		t.Fatalf("auto must always yield a usable backend: %v", err)
	}
	b.Cleanup()

	if _, err := Select("quantum"); !errors.Is(err, dynamo.ErrInitialization) {
		t.Errorf("unknown backend should be ErrInitialization, got %v", err)
	}
}

func BenchmarkCPUBackend(b *testing.B) {
	p := dynamo.DefaultParams()
	f, pot := seededField(p)
	backend := NewCPUBackend()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = backend.Step(f.Current(), f.Scratch(), pot, p)
		f.Flip()
	}
}
