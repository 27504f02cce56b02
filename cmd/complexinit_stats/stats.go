// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"math"
	"os"

	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// parts of a complex parameter.
type parts struct {
	re, im *tensors.Tensor
}

// report holds the values derived from the parts.
type report struct {
	re, im, modulus, phase []float64
	correlation            float64
}

type summary struct {
	name                   string
	mean, stddev, min, max float64
}

func analyze(p parts) (*report, error) {
	re, err := tensors.ToFloat64s(p.re)
	if err != nil {
		return nil, errors.WithMessage(err, "real part")
	}
	im, err := tensors.ToFloat64s(p.im)
	if err != nil {
		return nil, errors.WithMessage(err, "imaginary part")
	}
	if len(re) != len(im) {
		return nil, errors.Errorf("real part has %d values, imaginary part has %d", len(re), len(im))
	}
	r := &report{re: re, im: im, modulus: make([]float64, len(re)), phase: make([]float64, len(re))}
	for ii := range re {
		r.modulus[ii] = math.Hypot(re[ii], im[ii])
		r.phase[ii] = math.Atan2(im[ii], re[ii])
	}
	if len(re) > 1 {
		r.correlation = stat.Correlation(re, im, nil)
	}
	return r, nil
}

func summarize(name string, values []float64) summary {
	s := summary{name: name}
	if len(values) == 0 {
		return s
	}
	s.min, s.max = floats.Min(values), floats.Max(values)
	if len(values) == 1 {
		s.mean = values[0]
		return s
	}
	s.mean, s.stddev = stat.MeanStdDev(values, nil)
	return s
}

func (r *report) summaries() []summary {
	return []summary{
		summarize("real", r.re),
		summarize("imaginary", r.im),
		summarize("modulus", r.modulus),
		summarize("phase", r.phase),
	}
}

// expectedMeanModulus for the Standard initializer: the Rayleigh parameter is scale², and the
// mean of a Rayleigh distribution with parameter σ is σ·sqrt(π/2).
func expectedMeanModulus(scale float64) float64 {
	return scale * scale * math.Sqrt(math.Pi/2)
}

// consistency returns the largest |re²+im²-modulus²| of the parts against the modulus realized by the initializer.
func consistency(p parts, modulus *tensors.Tensor) (float64, error) {
	if modulus == nil {
		return 0, errors.New("no modulus realized")
	}
	m, err := tensors.ToFloat64s(modulus)
	if err != nil {
		return 0, err
	}
	r, err := analyze(p)
	if err != nil {
		return 0, err
	}
	if len(m) != len(r.re) {
		return 0, errors.Errorf("modulus has %d values, parts have %d", len(m), len(r.re))
	}
	var maxDiff float64
	for ii, v := range m {
		maxDiff = max(maxDiff, math.Abs(r.re[ii]*r.re[ii]+r.im[ii]*r.im[ii]-v*v))
	}
	return maxDiff, nil
}

// plotHistograms saves the histograms of the modulus and the phase side by side in a PNG file.
func plotHistograms(r *report, bins int, filePath string) error {
	const width, height = 12 * vg.Inch, 5 * vg.Inch
	plots := make([][]*plot.Plot, 1)
	for _, s := range []struct {
		title  string
		values []float64
	}{{"modulus", r.modulus}, {"phase", r.phase}} {
		p := plot.New()
		p.Title.Text = s.title
		p.X.Label.Text = s.title
		p.Y.Label.Text = "count"
		hist, err := plotter.NewHist(plotter.Values(s.values), bins)
		if err != nil {
			return errors.Wrapf(err, "histogram of %s", s.title)
		}
		p.Add(hist)
		plots[0] = append(plots[0], p)
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: len(plots[0]), PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := plot.Align(plots, tiles, dc)
	for col, p := range plots[0] {
		p.Draw(canvases[0][col])
	}
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "creating %q", filePath)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err = png.WriteTo(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "writing %q", filePath)
	}
	return errors.Wrapf(f.Close(), "closing %q", filePath)
}
