// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package initializer

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrUnknownInitializer is returned (wrapped) by Get when a name is not registered.
var ErrUnknownInitializer = errors.New("unknown initializer")

// Factory creates an Initializer given the random number generator to use and optional parameters.
// Parameters not given should take the documented defaults.
type Factory func(rng *random.Random, params map[string]float64) Initializer

// Config describes an initializer by name, with optional parameters.
// E.g.: Config{Name: "random_normal", Params: map[string]float64{"stddev": 0.1}}.
type Config struct {
	Name   string
	Params map[string]float64
}

// Spec is anything Get can resolve into an Initializer:
//
//   - Initializer, or a plain `func(shapes.Shape) (*tensors.Tensor, error)`: used as is.
//   - string: the name of a registered initializer, e.g. "glorot_uniform" or "GlorotUniform".
//   - Config or *Config: a name with parameters.
type Spec = any

var (
	muRegistry sync.Mutex
	registry   = map[string]Factory{
		"zeros": func(_ *random.Random, _ map[string]float64) Initializer { return Zero },
		"ones":  func(_ *random.Random, _ map[string]float64) Initializer { return One },
		"constant": func(_ *random.Random, params map[string]float64) Initializer {
			return Constant(paramOr(params, "value", 0))
		},
		"random_normal": func(rng *random.Random, params map[string]float64) Initializer {
			return Normal(rng, paramOr(params, "stddev", 0.05))
		},
		"random_uniform": func(rng *random.Random, params map[string]float64) Initializer {
			return Uniform(rng, paramOr(params, "minval", -0.05), paramOr(params, "maxval", 0.05))
		},
		"glorot_uniform": func(rng *random.Random, _ map[string]float64) Initializer { return GlorotUniform(rng) },
		"glorot_normal":  func(rng *random.Random, _ map[string]float64) Initializer { return GlorotNormal(rng) },
		"he_normal":      func(rng *random.Random, _ map[string]float64) Initializer { return HeNormal(rng) },
		"he_uniform":     func(rng *random.Random, _ map[string]float64) Initializer { return HeUniform(rng) },
		"lecun_normal":   func(rng *random.Random, _ map[string]float64) Initializer { return LecunNormal(rng) },
	}
	aliases = map[string]string{
		"zero":           "zeros",
		"one":            "ones",
		"xavier_uniform": "glorot_uniform",
		"xavier_normal":  "glorot_normal",
		"normal":         "random_normal",
		"uniform":        "random_uniform",
	}
)

func paramOr(params map[string]float64, key string, defaultValue float64) float64 {
	if value, found := params[key]; found {
		return value
	}
	return defaultValue
}

// Register a new initializer factory under the given name, making it available to Get.
// Names are normalized to snake case, so "MyInit" and "my_init" are the same.
// It overrides any previous registration with the same name.
func Register(name string, factory Factory) {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	registry[NormalizeName(name)] = factory
}

// Names returns the sorted list of registered initializer names.
func Names() []string {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	return slices.Sorted(maps.Keys(registry))
}

// NormalizeName converts CamelCase names to snake_case and lower-cases them, so "GlorotUniform" becomes
// "glorot_uniform".
func NormalizeName(name string) string {
	var sb strings.Builder
	runes := []rune(strings.TrimSpace(name))
	for ii, r := range runes {
		if unicode.IsUpper(r) {
			if ii > 0 && runes[ii-1] != '_' && !unicode.IsUpper(runes[ii-1]) {
				sb.WriteRune('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Get resolves spec into an Initializer. See Spec for the accepted values.
//
// The rng is given to the random initializers. If nil, a new clock-seeded generator is used.
func Get(spec Spec, rng *random.Random) (Initializer, error) {
	switch s := spec.(type) {
	case nil:
		return nil, errors.New("initializer.Get: nil initializer spec")
	case Initializer:
		if s == nil {
			return nil, errors.New("initializer.Get: nil Initializer")
		}
		return s, nil
	case func(shapes.Shape) (*tensors.Tensor, error):
		if s == nil {
			return nil, errors.New("initializer.Get: nil initializer function")
		}
		return s, nil
	case string:
		return fromConfig(Config{Name: s}, rng)
	case Config:
		return fromConfig(s, rng)
	case *Config:
		if s == nil {
			return nil, errors.New("initializer.Get: nil *Config")
		}
		return fromConfig(*s, rng)
	default:
		return nil, errors.Errorf("initializer.Get: cannot resolve initializer from value of type %T", spec)
	}
}

func fromConfig(config Config, rng *random.Random) (Initializer, error) {
	name := NormalizeName(config.Name)
	if alias, found := aliases[name]; found {
		name = alias
	}
	muRegistry.Lock()
	factory, found := registry[name]
	muRegistry.Unlock()
	if !found {
		return nil, errors.Wrapf(ErrUnknownInitializer, "initializer.Get(%q)", config.Name)
	}
	if rng == nil {
		rng = random.New()
	}
	klog.V(2).Infof("initializer: resolved %q with params %v", name, config.Params)
	return factory(rng, config.Params), nil
}
