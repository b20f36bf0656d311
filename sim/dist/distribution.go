// Package dist provides the duration distributions used for process times.
// Every sampler draws in minutes and clamps to a non-negative value, so a
// sample can always be used directly as a timeout.
package dist

import (
	"fmt"
	"math"
	"math/rand"
)

// Sampler generates process durations in minutes.
type Sampler interface {
	// Sample returns a non-negative duration in minutes.
	Sample(rng *rand.Rand) float64
}

// TriangularSampler draws from a triangular(min, mode, max) distribution,
// the empirical fit used for most hands-on process steps.
type TriangularSampler struct {
	min, mode, max float64
}

func (s *TriangularSampler) Sample(rng *rand.Rand) float64 {
	if s.max <= s.min {
		return clampMin(s.min)
	}
	u := rng.Float64()
	fc := (s.mode - s.min) / (s.max - s.min)
	var val float64
	if u < fc {
		val = s.min + math.Sqrt(u*(s.max-s.min)*(s.mode-s.min))
	} else {
		val = s.max - math.Sqrt((1-u)*(s.max-s.min)*(s.max-s.mode))
	}
	return clampMin(val)
}

// NormalSampler draws from a Gaussian clamped at zero, used for scan
// durations specified as mean/std.
type NormalSampler struct {
	mean, stdDev float64
}

func (s *NormalSampler) Sample(rng *rand.Rand) float64 {
	return clampMin(rng.NormFloat64()*s.stdDev + s.mean)
}

// ExponentialSampler draws exponentially-distributed durations. Used for the
// inter-arrival process (the mean is the mean inter-arrival time).
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	return clampMin(rng.ExpFloat64() * s.mean)
}

// ConstantSampler always returns the same fixed value (zero variance).
type ConstantSampler struct {
	value float64
}

func (s *ConstantSampler) Sample(_ *rand.Rand) float64 {
	return clampMin(s.value)
}

func clampMin(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// Spec parameterizes a duration distribution in a scenario file.
type Spec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Triangular builds a Spec for a triangular(min, mode, max) distribution.
func Triangular(min, mode, max float64) Spec {
	return Spec{Type: "triangular", Params: map[string]float64{"min": min, "mode": mode, "max": max}}
}

// Normal builds a Spec for a clamped Gaussian.
func Normal(mean, stdDev float64) Spec {
	return Spec{Type: "normal", Params: map[string]float64{"mean": mean, "std_dev": stdDev}}
}

// Exponential builds a Spec with the given mean.
func Exponential(mean float64) Spec {
	return Spec{Type: "exponential", Params: map[string]float64{"mean": mean}}
}

// Constant builds a Spec that always samples value.
func Constant(value float64) Spec {
	return Spec{Type: "constant", Params: map[string]float64{"value": value}}
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// New creates a Sampler from a Spec. Missing parameters are configuration
// errors: the run must never start with them.
func New(spec Spec) (Sampler, error) {
	switch spec.Type {
	case "triangular":
		if err := requireParam(spec.Params, "min", "mode", "max"); err != nil {
			return nil, err
		}
		min, mode, max := spec.Params["min"], spec.Params["mode"], spec.Params["max"]
		if min > mode || mode > max {
			return nil, fmt.Errorf("triangular requires min <= mode <= max, got (%v, %v, %v)", min, mode, max)
		}
		return &TriangularSampler{min: min, mode: mode, max: max}, nil

	case "normal":
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		if spec.Params["std_dev"] < 0 {
			return nil, fmt.Errorf("normal requires a non-negative std_dev, got %v", spec.Params["std_dev"])
		}
		return &NormalSampler{mean: spec.Params["mean"], stdDev: spec.Params["std_dev"]}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["mean"] <= 0 {
			return nil, fmt.Errorf("exponential requires a positive mean, got %v", spec.Params["mean"])
		}
		return &ExponentialSampler{mean: spec.Params["mean"]}, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return &ConstantSampler{value: spec.Params["value"]}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
