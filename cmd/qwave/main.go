package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/qwave/internal/config"
)

var (
	dataDir     string
	configFile  string
	presetName  string
	sourceSpec  string
	altSource   string
	backendName string
	logLevel    string
	logJSON     bool
	logFile     string
	fps         int
	frames      int
	seed        int64
	width       int
	height      int
	emitter     bool
	sets        []string

	// render outputs
	gifPath  string
	pngPath  string
	jsonPath string
	svgPath  string
	watch    bool
	probeAt  string

	// regulation
	holdTarget float64
	holdParam  string
	holdMax    float64
	holdGains  []float64

	sound  bool
	menu   bool
	addr   string
	series string
)

// paramFlags maps float flags onto parameter knobs. They only override the
// preset or config file when given explicitly.
var paramFlags = []struct {
	flag, key, usage string
	def              float64
}{
	{"dt", "dt", "time step per substep", 0.01},
	{"substeps", "substeps", "kernel steps per frame", 20},
	{"damping", "damping", "interior damping", 0.01},
	{"wave-speed", "waveSpeed", "kinetic coefficient", 1},
	{"kx", "kx", "initial packet momentum along x", 0.5},
	{"ky", "ky", "initial packet momentum along y", 0},
	{"packet-width", "packetWidth", "initial packet width in cells", 8},
	{"potential-amp", "potentialAmplitude", "potential amplitude", 5},
	{"threshold", "boundaryThreshold", "luminance edge threshold", 1},
	{"display", "displayMode", "display mode (0 real, 1 probability, 2 phase, 3 color, 4 imaginary)", 3},
	{"blend", "blendMode", "blend mode (0 normal, 1 additive, 2 subtractive, 3 multiply, 4 screen)", 0},
	{"mix", "mixRatio", "source/wave mix ratio", 0.5},
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "qwave",
		Short:             "image-driven quantum wave field simulator",
		SilenceUsage:      true,
		PersistentPreRunE: prepare,
		RunE: func(cmd *cobra.Command, args []string) error {
			menu = true
			return runLive(cmd, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml or ini)")
	pf.StringVar(&presetName, "preset", "", "use preset configuration")
	pf.StringVar(&sourceSpec, "source", config.DefaultSource, "image source: noise, pattern:<name>, file:<path> or none")
	pf.StringVar(&altSource, "alt-source", "noise", "secondary image source toggled at runtime")
	pf.StringVar(&backendName, "backend", config.DefaultBackend, "compute backend: cpu, opengl or auto")
	pf.StringVar(&logLevel, "log-level", "info", "log level")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&logFile, "log-file", "", "append logs to this file")
	pf.IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	pf.IntVar(&frames, "frames", config.DefaultFrames, "frames per headless run")
	pf.Int64Var(&seed, "seed", 1, "random seed for generated sources")
	pf.IntVar(&width, "width", 192, "grid width")
	pf.IntVar(&height, "height", 144, "grid height")
	pf.BoolVar(&emitter, "emitter", true, "enable the oscillating point source")
	pf.StringArrayVar(&sets, "set", nil, "set any parameter, name=value (repeatable)")
	for _, f := range paramFlags {
		pf.Float64(f.flag, f.def, f.usage)
	}
	pf.Float64Var(&holdTarget, "hold", 0, "regulate the interior probability to this value (0 disables)")
	pf.StringVar(&holdParam, "hold-param", "sourceStrength", "parameter the regulator moves")
	pf.Float64Var(&holdMax, "hold-max", 5, "upper bound for the regulated parameter")
	pf.Float64SliceVar(&holdGains, "hold-gains", []float64{0.02, 0.005, 0}, "regulator kp,ki,kd")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation in the terminal",
		RunE:  runLive,
	}
	liveCmd.Flags().BoolVar(&menu, "menu", false, "start on the preset menu")
	liveCmd.Flags().StringVar(&gifPath, "gif", "", "where recordings are saved (default qwave.gif)")
	liveCmd.Flags().BoolVar(&sound, "sound", false, "play an ambient tone that follows the field probability")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run the simulation in a window",
		RunE:  runGUI,
	}
	guiCmd.Flags().StringVar(&gifPath, "gif", "", "where recordings are saved (default qwave.gif)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream frames over a websocket",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "run headless and store the run",
		RunE:  runRender,
	}
	renderCmd.Flags().StringVar(&gifPath, "gif", "", "write an animated GIF")
	renderCmd.Flags().StringVar(&pngPath, "png", "", "write the final frame as PNG")
	renderCmd.Flags().StringVar(&jsonPath, "json", "", "write the run as JSON")
	renderCmd.Flags().StringVar(&svgPath, "svg", "", "write the final frame as braille SVG")
	renderCmd.Flags().BoolVar(&watch, "watch", false, "draw frames in the terminal while rendering")
	renderCmd.Flags().StringVar(&probeAt, "probe", "", "record psi at cell x,y")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "", "only this series")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "write the series as SVG instead")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "statistics and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&jsonPath, "out", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare [param] [value1] [value2] ...",
		Short: "run variants of one parameter side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareRuns,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [param] [from] [to]",
		Short: "sweep one parameter and report a metric",
		Args:  cobra.ExactArgs(3),
		RunE:  sweepParam,
	}
	sweepCmd.Flags().Int("steps", 8, "number of values")
	sweepCmd.Flags().String("metric", "probability", "metric to report")

	divergeCmd := &cobra.Command{
		Use:   "diverge [param] [delta]",
		Short: "measure how fast a perturbed run separates",
		Args:  cobra.ExactArgs(2),
		RunE:  divergeRuns,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [param=v1,v2,...] ...",
		Short: "grid-search parameters for the lowest metric",
		Args:  cobra.MinimumNArgs(1),
		RunE:  tuneParams,
	}
	tuneCmd.Flags().String("metric", "drift", "metric to minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of headless runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the frame pipeline",
		RunE:  benchFrames,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the resolved configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}

	rootCmd.AddCommand(liveCmd, guiCmd, serveCmd, renderCmd, listCmd, plotCmd, analyzeCmd, exportCmd,
		compareCmd, sweepCmd, divergeCmd, tuneCmd, scenarioCmd, presetsCmd, benchCmd, initCmd)
	return rootCmd
}
