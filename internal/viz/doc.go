// Package viz turns the field into pixels.
//
//   - [Map]: field slot to a scalar or pre-colored [Image] per display mode
//   - [Composite]: colormap and blend with the source frame into RGBA
//   - [HalfBlock], [Canvas]: terminal renderings of a composited frame
//
// # Display modes
//
//	0  real part          R·amplitudeScale
//	1  probability        |ψ|²·probScale
//	2  phase              |ψ|·amplitudeScale·(cos φ + 0.5 sin φ)
//	3  direct color       sign-split R/I with glow, tone mapped
//	4  imaginary part     I·amplitudeScale
//
// Scalar modes go through the blue-white-red [Diverging] colormap in the
// compositor; mode 3 is used as-is.
package viz
