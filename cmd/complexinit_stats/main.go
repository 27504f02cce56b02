// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// complexinit_stats materializes a complex parameter with one of the complex initializers and reports
// the statistics of its parts, modulus and phase. Optionally it plots the histograms of the modulus
// and phase.
//
// Example:
//
//	complexinit_stats -init=complex_he -dims=64,32 -seed=1 -plot=hist.png
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/nqs/internal/termui"
	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/ml/initializer"
	"github.com/gomlx/nqs/pkg/ml/initializer/complexinit"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagInit      = flag.String("init", complexinit.PresetGlorot, "Complex initializer: complex_glorot, complex_he or the name of a scalar initializer used for both parts.")
	flagDims      = flag.String("dims", "64,32", "Comma-separated dimensions of the parameter.")
	flagDType     = flag.String("dtype", "float64", "DType of the parts: float16, float32 or float64.")
	flagSeed      = flag.Int64("seed", 0, "Random seed. If 0, a seed is picked from the clock.")
	flagConjugate = flag.Bool("conjugate", false, "Conjugate the initializer.")
	flagViews     = flag.Bool("views", false, "Generate the parts with the real and imaginary views, instead of in one call.")
	flagPlot      = flag.String("plot", "", "If set, saves histograms of the modulus and phase to this PNG file.")
	flagBins      = flag.Int("bins", 50, "Number of bins of the histograms.")
	flagNoColor   = flag.Bool("no_color", false, "Disable colors in the output.")
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
	dtype := dtypes.FromName(*flagDType)
	if !dtype.IsFloat() {
		klog.Errorf("Invalid -dtype=%q: it must be float16, float32 or float64", *flagDType)
		os.Exit(1)
	}
	shape := shapes.Make(dtype, dims...)

	rng := random.NewWithSeed(*flagSeed)
	init, err := complexinit.Get(*flagInit, rng)
	if err != nil {
		klog.Fatalf("Failed to resolve initializer %q: %+v", *flagInit, err)
	}
	if *flagConjugate {
		init = complexinit.Conjugate(init)
	}

	var p parts
	if *flagViews {
		p.re = must.M1(init.RealPart()(shape))
		p.im = must.M1(init.ImagPart()(shape))
	} else {
		p.re, p.im = must.M2(init.Generate(shape))
	}
	r := must.M1(analyze(p))

	fanIn, fanOut := initializer.ComputeFanInFanOut(shape)
	fmt.Println(termui.TitleStyle.Render("Parameter"))
	table := termui.NewPlainTable(lipgloss.Right, lipgloss.Left)
	table.Row("initializer", fmt.Sprintf("%s (%T)", *flagInit, init))
	table.Row("seed", fmt.Sprintf("%d", rng.Seed()))
	table.Row("shape", shape.String())
	table.Row("# values", humanize.Comma(int64(shape.Size())))
	table.Row("fan in / out", fmt.Sprintf("%d / %d", fanIn, fanOut))
	if standard, ok := unwrapStandard(init); ok {
		scale := must.M1(standard.Criterion().Scale(fanIn, fanOut))
		table.Row("criterion", string(standard.Criterion()))
		table.Row("scale", fmt.Sprintf("%g", scale))
		table.Row("expected mean modulus", fmt.Sprintf("%.6g", expectedMeanModulus(scale)))
		table.Row("max |re²+im²-modulus²|", fmt.Sprintf("%.3g", must.M1(consistency(p, standard.Modulus()))))
	}
	fmt.Println(table.Render())

	fmt.Println(termui.TitleStyle.Render("Statistics"))
	statsTable := termui.NewPlainTable(lipgloss.Left, lipgloss.Right)
	statsTable.Headers("Values", "Mean", "StdDev", "Min", "Max")
	for _, s := range r.summaries() {
		statsTable.Row(s.name, fmt.Sprintf("%.6g", s.mean), fmt.Sprintf("%.6g", s.stddev),
			fmt.Sprintf("%.6g", s.min), fmt.Sprintf("%.6g", s.max))
	}
	fmt.Println(statsTable.Render())
	fmt.Printf("correlation(re, im) = %+.4f\n", r.correlation)

	if *flagPlot != "" {
		if err := plotHistograms(r, *flagBins, *flagPlot); err != nil {
			klog.Fatalf("Failed to plot histograms: %+v", err)
		}
		klog.Infof("Histograms saved to %q", *flagPlot)
	}
}

// unwrapStandard returns the Standard initializer, possibly conjugated.
func unwrapStandard(init complexinit.Initializer) (*complexinit.Standard, bool) {
	if conj, ok := init.(*complexinit.Conjugated); ok {
		init = conj.Unwrap()
	}
	standard, ok := init.(*complexinit.Standard)
	return standard, ok
}
