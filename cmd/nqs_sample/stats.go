// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// validateSizes checks the sizing flags before anything is built from them.
func validateSizes(batchSize, numBatches int) error {
	if batchSize <= 0 {
		return errors.Errorf("-batch must be > 0, got %d", batchSize)
	}
	if numBatches < 0 {
		return errors.Errorf("-batches must be >= 0, got %d", numBatches)
	}
	return nil
}

// magnetization of one configuration: the mean of its spins, in [-1, 1].
func magnetization(spins []float32) float64 {
	if len(spins) == 0 {
		return 0
	}
	values := make([]float64, len(spins))
	for ii, s := range spins {
		values[ii] = float64(s)
	}
	return floats.Sum(values) / float64(len(values))
}

// meanStdDev returns the mean and the (unbiased) standard deviation of the values.
// The standard deviation is 0 for fewer than 2 values.
func meanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
