// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// nqs_sample creates a linear autoregressive wavefunction with complex parameters and draws batches
// of spin configurations from it, displaying the sampled lattices and their statistics.
//
// Example:
//
//	nqs_sample -dims=4,4 -batch=8 -seed=42 -init=complex_glorot -progress
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/nqs/internal/termui"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/gomlx/nqs/pkg/ml/sampler"
	"github.com/gomlx/nqs/pkg/ml/wavefunction"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagDims        = flag.String("dims", "4,4", "Comma-separated dimensions of the lattice: 1 or 2 dimensions.")
	flagBatch       = flag.Int("batch", 8, "Number of configurations sampled per batch.")
	flagMiniBatch   = flag.Int("mini_batch", 0, "Mini-batch size used by the model. Defaults to -batch.")
	flagNumBatches  = flag.Int("batches", 1, "Number of batches to sample. The batch persists across calls.")
	flagSeed        = flag.Int64("seed", 0, "Random seed. If 0, a seed is picked from the clock.")
	flagInit        = flag.String("init", wavefunction.DefaultInitializer, "Complex initializer of the weights, e.g. complex_glorot, complex_he or glorot_uniform.")
	flagParallelism = flag.Int("parallelism", runtime.NumCPU(), "Examples evaluated in parallel by the model. 0 disables parallelism.")
	flagProgress    = flag.Bool("progress", false, "Display a progress bar over the lattice sites while sampling.")
	flagNoColor     = flag.Bool("no_color", false, "Disable colors in the output.")
	flagShow        = flag.Int("show", 8, "Maximum number of sampled lattices to display per batch.")
	flagPerLine     = flag.Int("per_line", 4, "Number of lattices displayed side by side.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagNoColor {
		termui.DisableColors()
	}
	dims, err := termui.ParseDims(*flagDims)
	if err != nil {
		klog.Errorf("Invalid -dims: %v", err)
		os.Exit(1)
	}
	if err := validateSizes(*flagBatch, *flagNumBatches); err != nil {
		klog.Errorf("Invalid flags: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rng := random.NewWithSeed(*flagSeed)
	klog.V(1).Infof("Seed: %d", rng.Seed())
	model, err := wavefunction.New(dims...).
		WithInitializer(*flagInit).
		WithRandom(rng.Split()).
		WithParallelism(*flagParallelism).
		Done()
	if err != nil {
		klog.Fatalf("Failed to create wavefunction: %+v", err)
	}
	s := sampler.New(model, *flagBatch).
		WithRandom(rng.Split()).
		WithMiniBatchSize(*flagMiniBatch).
		WithProgressBar(*flagProgress)
	klog.V(1).Infof("Sampler %s", s)

	var allMagnetizations []float64
	start := time.Now()
	for batchIdx := range *flagNumBatches {
		batch, err := s.NextBatch(ctx, nil)
		if err != nil {
			klog.Fatalf("Failed to sample batch #%d: %+v", batchIdx, err)
		}
		logAmplitudes := must.M1(model.LogAmplitude(ctx, batch))
		allMagnetizations = append(allMagnetizations, reportBatch(batchIdx, dims, batch, logAmplitudes)...)
	}
	elapsed := time.Since(start)
	reportSummary(s, model, rng.Seed(), allMagnetizations, elapsed)
}

func reportBatch(batchIdx int, dims []int, batch, logAmplitudes *tensors.Tensor) (magnetizations []float64) {
	spins := tensors.CopyFlatData[float32](batch)
	amplitudes := tensors.CopyFlatData[complex128](logAmplitudes)
	batchSize := batch.Shape().Dim(0)
	numSites := len(spins) / batchSize

	fmt.Println(termui.TitleStyle.Render(fmt.Sprintf("Batch #%d", batchIdx)))
	var lattices []string
	for example := range min(batchSize, *flagShow) {
		lattices = append(lattices, termui.RenderLattice(fmt.Sprintf("#%d", example),
			spins[example*numSites:(example+1)*numSites], dims))
	}
	if len(lattices) > 0 {
		fmt.Println(termui.JoinLattices(lattices, *flagPerLine))
	}

	// Fully polarized configurations are highlighted.
	table := termui.NewPlainTableWithReds(lipgloss.Right)
	table.Table.Headers("Sample", "Magnetization", "log |ψ|", "arg ψ")
	magnetizations = make([]float64, batchSize)
	for example := range batchSize {
		m := magnetization(spins[example*numSites : (example+1)*numSites])
		magnetizations[example] = m
		table.Row(m == 1 || m == -1,
			humanize.Comma(int64(example)),
			fmt.Sprintf("%+.3f", m),
			fmt.Sprintf("%.4f", real(amplitudes[example])),
			fmt.Sprintf("%+.4f", imag(amplitudes[example])))
	}
	fmt.Println(table.Render())
	return
}

func reportSummary(s *sampler.Autoregressive, model *wavefunction.Linear, seed int64, magnetizations []float64, elapsed time.Duration) {
	mean, stddev := meanStdDev(magnetizations)
	fmt.Println(termui.TitleStyle.Render("Summary"))
	table := termui.NewPlainTable(lipgloss.Right, lipgloss.Left)
	table.Row("sampler", s.ID())
	table.Row("seed", fmt.Sprintf("%d", seed))
	table.Row("lattice", fmt.Sprintf("%v", model.InputShape()))
	table.Row("# sites", humanize.Comma(int64(model.NumSites())))
	table.Row("batch size", humanize.Comma(int64(s.BatchSize())))
	table.Row("parallelism", fmt.Sprintf("%d", model.Parallelism()))
	table.Row("# samples", humanize.Comma(int64(len(magnetizations))))
	table.Row("# model evaluations", humanize.Comma(int64(*flagNumBatches*model.NumSites())))
	table.Row("magnetization", fmt.Sprintf("%+.4f ± %.4f", mean, stddev))
	table.Row("elapsed", elapsed.Round(time.Millisecond).String())
	fmt.Println(table.Render())
}
