package sim

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/dynamo"
)

var _ = Describe("Loop", func() {
	var (
		orch  *Orchestrator
		store *dynamo.ParamStore
		loop  *Loop
	)

	BeforeEach(func() {
		p := testParams()
		var err error
		orch, err = New(p.Width, p.Height, compute.NewCPUBackend(), nil)
		Expect(err).NotTo(HaveOccurred())
		orch.Reset(p)
		store = dynamo.NewParamStore(p)
		loop = NewLoop(orch, store, 120)
	})

	It("renders a frame per tick and calls handlers", func() {
		var seen []int
		loop.OnFrame(func(r *FrameResult) { seen = append(seen, r.Index) })

		for i := 0; i < 3; i++ {
			res, err := loop.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(res).NotTo(BeNil())
		}
		Expect(seen).To(Equal([]int{0, 1, 2}))
	})

	It("skips frames while paused", func() {
		loop.Pause()
		Expect(loop.Paused()).To(BeTrue())

		res, err := loop.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(BeNil())
		Expect(orch.Time()).To(BeZero())

		loop.Resume()
		res, err = loop.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(res).NotTo(BeNil())
	})

	It("applies a requested reset at the next boundary", func() {
		_, err := loop.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(orch.Time()).To(BeNumerically(">", 0))

		loop.RequestReset()
		Expect(orch.Time()).To(BeNumerically(">", 0))

		res, err := loop.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Time).To(BeZero())
	})

	It("picks up parameter edits at the next frame", func() {
		Expect(store.Set("substeps", 3)).To(Succeed())
		res, err := loop.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Substeps).To(Equal(3))
		Expect(res.Slot).To(Equal(1))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		Expect(loop.Run(ctx)).To(MatchError(context.DeadlineExceeded))
	})

	It("stops on a fatal backend error", func() {
		p := testParams()
		fatal := &failingBackend{err: fmt.Errorf("%w: context lost", dynamo.ErrInitialization)}
		o, err := New(p.Width, p.Height, fatal, nil)
		Expect(err).NotTo(HaveOccurred())

		l := NewLoop(o, dynamo.NewParamStore(p), 200)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err = l.Run(ctx)
		Expect(err).To(MatchError(dynamo.ErrInitialization))
		var fe *dynamo.FrameError
		Expect(err).To(BeAssignableToTypeOf(fe))
	})

	It("keeps running through non-fatal errors", func() {
		p := testParams()
		o, err := New(p.Width, p.Height, &failingBackend{err: fmt.Errorf("transient")}, nil)
		Expect(err).NotTo(HaveOccurred())

		l := NewLoop(o, dynamo.NewParamStore(p), 200)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		Expect(l.Run(ctx)).To(MatchError(context.DeadlineExceeded))
	})
})
