// Package source provides the backdrop images that drive the potential.
//
// Every [Provider] returns frames already sized to the grid; the frame
// pipeline never resamples. Providers:
//
//   - [Still]: a decoded PNG/JPEG/GIF/WebP file, scaled to cover the grid
//   - [Noise]: animated OpenSimplex terrain, the stand-in live feed
//   - [NewPattern]: generated masks (slit, double-slit, ring, gray)
//   - [Feed]: frames pushed from outside, e.g. uploads over the websocket
//   - [Switch]: selects between two providers by mode
package source
