// Package tui is the terminal front end: a bubbletea live view driven by
// sim.Loop, a preset picker around it, and a plain observer that redraws
// headless renders in place.
package tui
