package sim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/san-kum/qwave/internal/dynamo"
)

// Loop drives an orchestrator at a fixed refresh rate. Pause, Resume and
// RequestReset may be called from any goroutine; they take effect at the
// next frame boundary.
type Loop struct {
	orch     *Orchestrator
	params   *dynamo.ParamStore
	interval time.Duration

	paused   atomic.Bool
	resetReq atomic.Bool

	mu       sync.Mutex
	handlers []func(*FrameResult)
	lastWarn error
}

func NewLoop(o *Orchestrator, params *dynamo.ParamStore, fps int) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{
		orch:     o,
		params:   params,
		interval: time.Second / time.Duration(fps),
	}
}

// OnFrame registers fn to be called with every completed frame, on the
// loop's goroutine.
func (l *Loop) OnFrame(fn func(*FrameResult)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, fn)
}

func (l *Loop) Pause()                      { l.paused.Store(true) }
func (l *Loop) Resume()                     { l.paused.Store(false) }
func (l *Loop) Paused() bool                { return l.paused.Load() }
func (l *Loop) RequestReset()               { l.resetReq.Store(true) }
func (l *Loop) Params() *dynamo.ParamStore  { return l.params }
func (l *Loop) Orchestrator() *Orchestrator { return l.orch }
func (l *Loop) Interval() time.Duration     { return l.interval }

// Run ticks until ctx is done or a fatal error occurs.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := l.Tick(); err != nil && dynamo.IsFatal(err) {
			return err
		}
	}
}

// Tick runs one frame boundary: a pending reset, then a frame unless
// paused. It returns a nil result while paused. Non-fatal errors are
// logged and returned.
func (l *Loop) Tick() (*FrameResult, error) {
	p := l.params.Snapshot()
	if l.resetReq.Swap(false) {
		l.orch.Reset(p)
		log.WithField("packet_width", p.PacketWidth).Info("field reset")
	}
	if l.paused.Load() {
		return nil, nil
	}

	res, err := l.orch.Frame(p)
	if err != nil {
		log.WithError(err).Error("frame failed")
		return nil, err
	}
	l.noteWarning(res)

	l.mu.Lock()
	handlers := l.handlers
	l.mu.Unlock()
	for _, fn := range handlers {
		fn(res)
	}
	return res, nil
}

// noteWarning logs a warning only when it first appears or changes kind.
func (l *Loop) noteWarning(res *FrameResult) {
	prev := l.lastWarn
	l.lastWarn = res.Warning
	if res.Warning == nil {
		if prev != nil {
			log.WithField("frame", res.Index).Info("source recovered")
		}
		return
	}
	if prev != nil && sameKind(prev, res.Warning) {
		return
	}
	log.WithFields(log.Fields{
		"frame": res.Index,
		"time":  res.Time,
	}).WithError(res.Warning).Warn("frame degraded")
}

func sameKind(a, b error) bool {
	for _, kind := range []error{dynamo.ErrSourceUnavailable, dynamo.ErrShapeMismatch} {
		if errors.Is(a, kind) && errors.Is(b, kind) {
			return true
		}
	}
	return false
}
