package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/qwave/internal/analysis"
	"github.com/san-kum/qwave/internal/automation"
	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/config"
	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/metrics"
	"github.com/san-kum/qwave/internal/optim"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/source"
	"github.com/san-kum/qwave/internal/storage"
)

func compareRuns(cmd *cobra.Command, args []string) error {
	name := args[0]

	variants := make([]sim.Variant, 0, len(args)-1)
	for _, raw := range args[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("value %q: %w", raw, err)
		}
		p := cfg.Params
		if err := p.SetParam(name, v); err != nil {
			return err
		}
		variants = append(variants, sim.Variant{Name: fmt.Sprintf("%s=%g", name, v), Params: p})
	}

	fmt.Printf("comparing %d variants of %s over %d frames...\n\n", len(variants), name, cfg.Frames)
	start := time.Now()
	e := sim.NewEnsemble(cfg.Frames, newSource(cfg), metrics.Standard)
	results, err := e.Run(context.Background(), variants)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tPROBABILITY\tDRIFT\tPEAK\tSTABILITY\tWARN")
	curves := make([][]float64, 0, len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.3f\t%d\n",
			variants[i].Name,
			r.Metrics["probability"],
			r.Metrics["drift"],
			r.Metrics["peak"],
			r.Metrics["stability"],
			r.Warning,
		)
		if s := r.Series["probability"]; len(s) > 1 {
			curves = append(curves, s)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nelapsed: %v\n", time.Since(start))

	if len(curves) > 0 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(curves,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("probability per variant"),
		))
	}
	return nil
}

func sweepParam(cmd *cobra.Command, args []string) error {
	name := args[0]
	lo, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	hi, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}
	steps, _ := cmd.Flags().GetInt("steps")
	metric, _ := cmd.Flags().GetString("metric")

	e := sim.NewEnsemble(cfg.Frames, newSource(cfg), metrics.Standard)
	points, err := analysis.Sweep(context.Background(), e, cfg.Params, name, lo, hi, steps, metric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", name, metric)
	values := make([]float64, len(points))
	for i, pt := range points {
		fmt.Fprintf(w, "%.4g\t%.6g\n", pt.Param, pt.Value)
		values[i] = pt.Value
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(asciigraph.Plot(values,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("%s vs %s", metric, name)),
	))
	return nil
}

func divergeRuns(cmd *cobra.Command, args []string) error {
	name := args[0]
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("delta: %w", err)
	}
	if _, ok := cfg.Params.GetParams()[name]; !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}

	p := cfg.Params
	newOrch := func() (*sim.Orchestrator, error) {
		src, err := source.Parse(cfg.Source, p.Width, p.Height, cfg.Seed)
		if err != nil {
			return nil, err
		}
		return sim.New(p.Width, p.Height, compute.NewCPUBackend(), src)
	}
	perturb := func(q *dynamo.Params) {
		v := q.GetParams()[name]
		q.SetParam(name, v+delta)
	}

	rate, dists, err := analysis.Divergence(context.Background(), newOrch, p, perturb, cfg.Frames)
	if err != nil {
		return err
	}

	fmt.Printf("perturbation: %s += %g\n", name, delta)
	fmt.Printf("frames: %d\n", len(dists))
	if len(dists) > 0 {
		fmt.Printf("final distance: %.6g\n", dists[len(dists)-1])
	}
	fmt.Printf("growth rate: %.6g per unit time\n", rate)
	if len(dists) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(dists,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("rms field distance"),
		))
	}
	return nil
}

func tuneParams(cmd *cobra.Command, args []string) error {
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%q: want param=v1,v2,...", arg)
		}
		var values []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	metric, _ := cmd.Flags().GetString("metric")

	g := optim.NewGridSearch(names, ranges)
	fmt.Printf("searching %d combinations for the lowest %s...\n", g.Size(), metric)
	e := sim.NewEnsemble(cfg.Frames, newSource(cfg), metrics.Standard)
	best, val, err := g.Search(context.Background(), e, cfg.Params, metric)
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.6g\n", metric, val)
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	ids, err := automation.RunScenario(context.Background(), sc, cfg, st)
	for _, id := range ids {
		fmt.Printf("  saved %s\n", id)
	}
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSOURCE\tDISPLAY\tBLEND\tGRID")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dx%d\n",
			name,
			c.Source,
			dynamo.DisplayModeName(c.Params.DisplayMode),
			dynamo.BlendModeName(c.Params.BlendMode),
			c.Params.Width, c.Params.Height,
		)
	}
	return w.Flush()
}

func benchFrames(cmd *cobra.Command, args []string) error {
	sizes := [][2]int{{64, 48}, {128, 96}, {192, 144}, {256, 192}}
	n := min(cfg.Frames, 60)

	fmt.Printf("benchmarking %d frames per grid, %d substeps, backend %s\n\n", n, cfg.Params.Substeps, cfg.Backend)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tBACKEND\tMS/FRAME\tCELL-STEPS/S")

	for _, size := range sizes {
		p := cfg.Params
		p.Width, p.Height = size[0], size[1]

		backend, err := compute.Select(cfg.Backend)
		if err != nil {
			return err
		}
		src, err := source.Parse(cfg.Source, p.Width, p.Height, cfg.Seed)
		if err != nil {
			backend.Cleanup()
			return err
		}
		o, err := sim.New(p.Width, p.Height, backend, src)
		if err != nil {
			backend.Cleanup()
			return err
		}

		start := time.Now()
		res, err := sim.RunHeadless(context.Background(), o, p, n)
		elapsed := time.Since(start)
		backend.Cleanup()
		if err != nil {
			return err
		}

		perFrame := elapsed / time.Duration(max(res.Frames, 1))
		cells := float64(p.Width*p.Height*p.Normalized().Substeps*res.Frames) / elapsed.Seconds()
		fmt.Fprintf(w, "%dx%d\t%s\t%.3f\t%.3g\n",
			p.Width, p.Height, backend.Name(), float64(perFrame.Microseconds())/1000, cells)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
