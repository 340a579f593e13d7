// Package control provides feedback regulation of live parameters.
//
// A [Regulator] watches a scalar measured after every frame, such as the
// interior Σ|ψ|², and steers one parameter knob with a [PID] controller so
// the measurement holds near a setpoint:
//
//	reg := control.NewRegulator(control.NewPID(0.02, 0.005, 0, 40), store,
//		"sourceStrength", 0, 5, measure)
//	orch.AddObserver(reg)
//
// The PID gains and setpoint implement [dynamo.Configurable] for live tuning.
package control
