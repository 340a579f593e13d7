// Package compute provides the execution substrates for the step kernel.
//
//   - CPU: row chunks of the grid stepped on parallel goroutines
//   - OpenGL: the same update as a GLSL 4.3 compute shader
//
// Every backend produces the same field for the same inputs (up to float
// rounding), so the choice only affects throughput.
//
// # GPU Acceleration
//
// The OpenGL backend needs a current GL 4.3 context on the calling thread,
// which the window created by the gui command provides. Build with:
//
//	go build -tags opengl ./cmd/qwave
//
// Without the tag, or without a context, [Select] with "opengl" fails with
// dynamo.ErrInitialization and "auto" falls back to the CPU.
package compute
