package control

import "fmt"

type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

// Compute returns the control output for measurement x taken at time t.
func (p *PID) Compute(x, t float64) float64 {
	err := p.Target - x

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.Kp * err
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt

		u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

		p.prevErr = err
		p.prevT = t

		return u
	}
	return p.Kp * err
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":     p.Kp,
		"ki":     p.Ki,
		"kd":     p.Kd,
		"target": p.Target,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "target":
		p.Target = value
	default:
		return fmt.Errorf("control: unknown gain %q", name)
	}
	return nil
}
