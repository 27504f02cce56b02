// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package complexinit

import (
	"strings"

	"github.com/gomlx/nqs/pkg/ml/initializer"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/pkg/errors"
)

// Preset names resolved by Get into a Standard initializer.
const (
	PresetGlorot = "complex_glorot"
	PresetHe     = "complex_he"
)

const presetPrefix = "complex_"

// Pair holds the scalar initializer specs (see initializer.Spec) for the real and imaginary parts.
type Pair struct {
	Real, Imag initializer.Spec
}

// Get resolves the identifier into an Initializer:
//
//   - Initializer: returned unchanged.
//   - Pair, *Pair or [2]initializer.Spec: FromRealValueInitializers with the two specs.
//   - PresetGlorot ("complex_glorot") or PresetHe ("complex_he"): Standard with the criterion after the
//     "complex_" prefix.
//   - Any other value (a scalar initializer name, config or function): FromRealValueInitializers using the same
//     spec for both parts. Names unknown to initializer.Get fail with initializer.ErrUnknownInitializer.
//
// The rng is used by the random initializers created. If nil, a clock-seeded generator is used.
func Get(identifier any, rng *random.Random) (Initializer, error) {
	switch id := identifier.(type) {
	case nil:
		return nil, errors.New("complexinit.Get: nil identifier")
	case Initializer:
		return id, nil
	case Pair:
		return independent(id.Real, id.Imag, rng)
	case *Pair:
		if id == nil {
			return nil, errors.New("complexinit.Get: nil *Pair")
		}
		return independent(id.Real, id.Imag, rng)
	case [2]initializer.Spec:
		return independent(id[0], id[1], rng)
	case string:
		if id == PresetGlorot || id == PresetHe {
			return NewStandard(Criterion(strings.TrimPrefix(id, presetPrefix)), rng), nil
		}
		return independent(id, id, rng)
	default:
		return independent(identifier, identifier, rng)
	}
}

// independent wraps FromRealValueInitializers so a failure yields a nil Initializer, not a nil *Independent.
func independent(realSpec, imagSpec initializer.Spec, rng *random.Random) (Initializer, error) {
	ind, err := FromRealValueInitializers(realSpec, imagSpec, rng)
	if err != nil {
		return nil, err
	}
	return ind, nil
}
