package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/qwave/internal/analysis"
	"github.com/san-kum/qwave/internal/export"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/storage"
	"github.com/san-kum/qwave/internal/tui"
	"github.com/san-kum/qwave/internal/viz"
)

// recording feeds every frame of a headless run into a GIF recorder.
type recording struct{ rec *export.GIFRecorder }

func (r recording) OnFrame(res *sim.FrameResult) { r.rec.Add(res.Image) }

func parseCell(s string) (int, int, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("probe %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, fmt.Errorf("probe x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, fmt.Errorf("probe y: %w", err)
	}
	return x, y, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	loop, _, _, err := newSession(cfg, "none")
	if err != nil {
		return err
	}
	o := loop.Orchestrator()
	defer o.Backend().Cleanup()

	var probe *analysis.Probe
	if probeAt != "" {
		x, y, err := parseCell(probeAt)
		if err != nil {
			return err
		}
		probe = analysis.NewProbe(x, y)
		o.AddMetric(probe)
	}

	var rec *export.GIFRecorder
	if gifPath != "" {
		rec = export.NewGIFRecorder(cfg.FPS, cfg.Frames)
		o.AddObserver(recording{rec})
	}

	if watch {
		r := tui.NewLiveRenderer(o.Source().Name(), cfg.FPS, 80, os.Stdout)
		r.Start()
		defer r.Stop()
		o.AddObserver(r)
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("rendering %d frames from %s...\n", cfg.Frames, cfg.Source)
	start := time.Now()
	result, err := sim.RunHeadless(context.Background(), o, cfg.Params, cfg.Frames)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Preset:  presetName,
		Source:  cfg.Source,
		Backend: o.Backend().Name(),
		Seed:    cfg.Seed,
		Params:  cfg.Params,
	}, result)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"run": runID, "frames": result.Frames}).Info("run saved")

	fmt.Printf("completed in %v (%.1f frames/s)\n", elapsed, float64(result.Frames)/elapsed.Seconds())
	fmt.Printf("run id: %s\n", runID)
	if result.Warning > 0 {
		fmt.Printf("degraded frames: %d\n", result.Warning)
	}
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	if probe != nil {
		fmt.Printf("\n%s  turns=%d\n", probe.Name(), probe.Crossings())
		fmt.Println(analysis.PortraitToASCII(probe.Points, 60, 20))
	}

	return writeOutputs(st, runID, result, rec)
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func writeOutputs(st *storage.Store, runID string, result *sim.Result, rec *export.GIFRecorder) error {
	if pngPath != "" && result.Final != nil {
		if err := export.WritePNG(pngPath, result.Final); err != nil {
			return err
		}
		fmt.Printf("final frame: %s\n", pngPath)
	}
	if rec != nil {
		if err := rec.Save(gifPath); err != nil {
			return err
		}
		fmt.Printf("animation: %s (%d frames)\n", gifPath, rec.Len())
	}
	if svgPath != "" && result.Final != nil {
		c := viz.NewCanvas(80, 30)
		c.Plot(result.Final, 0.35)
		if err := os.WriteFile(svgPath, []byte(export.CanvasToSVG(c, 4, "#00ffff")), 0644); err != nil {
			return err
		}
		fmt.Printf("braille svg: %s\n", svgPath)
	}
	if jsonPath != "" {
		data, err := export.LoadRun(st, runID)
		if err != nil {
			return err
		}
		if err := export.ExportJSON(jsonPath, data); err != nil {
			return err
		}
		fmt.Printf("json: %s\n", jsonPath)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tFRAMES\tSOURCE\tBACKEND\tWARN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Source,
			run.Backend,
			run.Warnings,
		)
	}
	return w.Flush()
}

func sortedSeries(series map[string][]float64) []string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, all, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	names := sortedSeries(all)
	if series != "" {
		if _, ok := all[series]; !ok {
			return fmt.Errorf("no series %q in run (have %v)", series, names)
		}
		names = []string{series}
	}

	if svgPath != "" {
		name := "probability"
		if series != "" {
			name = series
		}
		svg := export.SeriesToSVG(times, all[name], 800, 300, "#00aaff")
		if svg == "" {
			return fmt.Errorf("series %q is too short to draw", name)
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(times))

	for _, name := range names {
		data := all[name]
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(cfg.DataDir)
	times, all, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) < 2 {
		return fmt.Errorf("not enough samples to analyze")
	}
	dt := times[1] - times[0]

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMEAN\tSTD\tMIN\tMAX\tFREQ\tPOWER")
	for _, name := range sortedSeries(all) {
		data := all[name]
		s := analysis.Summarize(data)
		freq, power := analysis.DominantFrequency(data, dt)
		fmt.Fprintf(w, "%s\t%.6g\t%.3g\t%.6g\t%.6g\t%.4f\t%.3g\n", name, s.Mean, s.Std, s.Min, s.Max, freq, power)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	spectrum := analysis.PowerSpectrum(all["probability"])
	if len(spectrum) > 2 {
		graph := asciigraph.Plot(spectrum[1:min(len(spectrum), 101)],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (probability)"),
		)
		fmt.Println()
		fmt.Println(graph)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	data, err := export.LoadRun(st, args[0])
	if err != nil {
		return err
	}
	if jsonPath == "" {
		return export.ExportJSONStdout(data)
	}
	if err := export.ExportJSON(jsonPath, data); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", jsonPath)
	return nil
}
