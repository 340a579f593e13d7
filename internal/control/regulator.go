package control

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/sim"
)

// Regulator is a sim.Observer that holds a measured quantity at the PID
// setpoint by moving one parameter within [Min, Max].
type Regulator struct {
	PID      *PID
	Param    string
	Min, Max float64

	store   *dynamo.ParamStore
	measure func() float64
	base    float64
	last    float64
}

// NewRegulator steers param in store. The value param holds when the
// regulator is built is the operating point the PID output is added to.
func NewRegulator(pid *PID, store *dynamo.ParamStore, param string, lo, hi float64, measure func() float64) *Regulator {
	base, _ := store.Get(param)
	return &Regulator{
		PID:     pid,
		Param:   param,
		Min:     lo,
		Max:     hi,
		store:   store,
		measure: measure,
		base:    base,
		last:    base,
	}
}

// Value is the last value written to the parameter.
func (r *Regulator) Value() float64 { return r.last }

func (r *Regulator) OnFrame(res *sim.FrameResult) {
	m := r.measure()
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return
	}
	if res.Index == 0 {
		r.PID.Reset()
	}

	v := math.Max(r.Min, math.Min(r.Max, r.base+r.PID.Compute(m, res.Time)))
	if err := r.store.Set(r.Param, v); err != nil {
		log.WithError(err).WithField("param", r.Param).Warn("regulator update rejected")
		return
	}
	r.last = v
}
