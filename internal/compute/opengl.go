//go:build opengl

package compute

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	log "github.com/sirupsen/logrus"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/physics"
)

//go:embed shaders/step.comp
var stepShader string

const workGroupSize = 16

// Buffer bindings, matching shaders/step.comp.
const (
	bindSrcRe = iota
	bindSrcIm
	bindPot
	bindDstRe
	bindDstIm
	numBuffers
)

// OpenGLBackend runs the step kernel as a compute shader. It must be created
// and used on the thread that owns the current GL context.
type OpenGLBackend struct {
	program  uint32
	ssbo     [numBuffers]uint32
	cells    int
	uniforms map[string]int32
	err      error
}

func NewOpenGLBackend() *OpenGLBackend {
	g := &OpenGLBackend{}
	g.err = g.init()
	return g
}

func (g *OpenGLBackend) init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to init opengl: %v", err)
	}
	if gl.GetString(gl.VERSION) == nil {
		return fmt.Errorf("no current opengl context")
	}

	program, err := createComputeProgram(stepShader)
	if err != nil {
		return err
	}
	g.program = program

	g.uniforms = make(map[string]int32)
	for _, name := range []string{
		"width", "height", "sponge", "halfDt", "k", "invDx2", "amp", "offset",
		"damp", "sourceOn", "srcAmp", "srcInv2S", "srcCenter", "srcK", "srcPhase",
	} {
		g.uniforms[name] = gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	}

	gl.GenBuffers(numBuffers, &g.ssbo[0])

	var maxWorkGroupCount [3]int32
	gl.GetIntegeri_v(gl.MAX_COMPUTE_WORK_GROUP_COUNT, 0, &maxWorkGroupCount[0])
	log.WithFields(log.Fields{
		"version":       gl.GoStr(gl.GetString(gl.VERSION)),
		"maxWorkGroups": maxWorkGroupCount[0],
	}).Info("opengl compute initialized")
	return nil
}

func (g *OpenGLBackend) Name() string {
	if g.err != nil {
		return "opengl (not available: " + g.err.Error() + ")"
	}
	return "opengl"
}

func (g *OpenGLBackend) Available() bool { return g.err == nil }

func (g *OpenGLBackend) Cleanup() {
	if g.err != nil {
		return
	}
	gl.DeleteBuffers(numBuffers, &g.ssbo[0])
	gl.DeleteProgram(g.program)
	g.err = dynamo.ErrInitialization
}

func (g *OpenGLBackend) Step(src, dst dynamo.Slot, pot *dynamo.Potential, p dynamo.Params) error {
	if g.err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInitialization, g.err)
	}
	if err := checkShape(src, dst, pot); err != nil {
		return err
	}

	n := pot.W * pot.H
	size := n * 4
	if n != g.cells {
		for _, b := range g.ssbo {
			gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b)
			gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, gl.DYNAMIC_DRAW)
		}
		g.cells = n
	}

	upload := func(binding int, data []float32) {
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, g.ssbo[binding])
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, size, gl.Ptr(data))
	}
	upload(bindSrcRe, src.Re)
	upload(bindSrcIm, src.Im)
	upload(bindPot, pot.V)
	for i, b := range g.ssbo {
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(i), b)
	}

	c := physics.NewCoeffs(p, pot.W, pot.H)
	gl.UseProgram(g.program)
	gl.Uniform1i(g.uniforms["width"], int32(c.W))
	gl.Uniform1i(g.uniforms["height"], int32(c.H))
	gl.Uniform1i(g.uniforms["sponge"], physics.SpongeWidth)
	gl.Uniform1f(g.uniforms["halfDt"], c.HalfDt)
	gl.Uniform1f(g.uniforms["k"], c.K)
	gl.Uniform1f(g.uniforms["invDx2"], c.InvDx2)
	gl.Uniform1f(g.uniforms["amp"], c.Amp)
	gl.Uniform1f(g.uniforms["offset"], c.Offset)
	gl.Uniform1f(g.uniforms["damp"], c.Damp)
	sourceOn := int32(0)
	if c.SourceOn {
		sourceOn = 1
	}
	gl.Uniform1i(g.uniforms["sourceOn"], sourceOn)
	gl.Uniform1f(g.uniforms["srcAmp"], c.SrcAmp)
	gl.Uniform1f(g.uniforms["srcInv2S"], c.SrcInv2S)
	gl.Uniform2f(g.uniforms["srcCenter"], c.SrcCX, c.SrcCY)
	gl.Uniform2f(g.uniforms["srcK"], c.SrcKX, c.SrcKY)
	gl.Uniform1f(g.uniforms["srcPhase"], c.SrcPhase)

	gl.DispatchCompute(
		uint32((c.W+workGroupSize-1)/workGroupSize),
		uint32((c.H+workGroupSize-1)/workGroupSize),
		1,
	)
	gl.MemoryBarrier(gl.BUFFER_UPDATE_BARRIER_BIT | gl.SHADER_STORAGE_BARRIER_BIT)

	download := func(binding int, data []float32) {
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, g.ssbo[binding])
		gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, size, gl.Ptr(data))
	}
	download(bindDstRe, dst.Re)
	download(bindDstIm, dst.Im)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("opengl step: error 0x%x", code)
	}
	return nil
}

func createComputeProgram(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(msg))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile compute shader: %v", msg)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	gl.DeleteShader(shader)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program")
	}
	return program, nil
}
