package viz

// Diverging maps a signed scalar onto a blue-white-red ramp. v = -1 is pure
// blue, 0 is white and 1 is pure red; values beyond ±1 saturate.
func Diverging(v float32) (r, g, b float32) {
	t := clamp01((v + 1) / 2)
	if t < 0.5 {
		s := t * 2
		return s, s, 1
	}
	s := (t - 0.5) * 2
	return 1, 1 - s, 1 - s
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mix(a, b, t float32) float32 {
	return a + (b-a)*t
}
