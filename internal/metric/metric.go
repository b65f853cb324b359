package metric

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrUnsupportedMetric = errors.New("unsupported metric")
	ErrLengthMismatch    = errors.New("predicted and actual value counts differ")
	ErrEmptyInput        = errors.New("cannot evaluate empty value sequences")
)

// Kind identifies the scoring metric configured for the competition.
type Kind string

const (
	RMSE     Kind = "rmse"
	MAE      Kind = "mae"
	Accuracy Kind = "accuracy"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case RMSE, MAE, Accuracy:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMetric, s)
	}
}

// Direction is the optimization direction: whether lower or higher scores win.
// It governs every best-score and rank comparison in the system.
type Direction string

const (
	Min Direction = "min"
	Max Direction = "max"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Min, Max:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("invalid optimization direction %q (want min or max)", s)
	}
}

// Evaluate computes a scalar score from predicted vs actual values. Both slices
// must be index-aligned to the same row identity; a length mismatch is a caller
// error, never silently tolerated.
func Evaluate(predicted, actual []float64, kind Kind) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("%w: %d predicted vs %d actual", ErrLengthMismatch, len(predicted), len(actual))
	}
	if len(predicted) == 0 {
		return 0, ErrEmptyInput
	}

	switch kind {
	case RMSE:
		diff := make([]float64, len(predicted))
		floats.SubTo(diff, predicted, actual)
		floats.Mul(diff, diff)
		return math.Sqrt(stat.Mean(diff, nil)), nil
	case MAE:
		diff := make([]float64, len(predicted))
		floats.SubTo(diff, predicted, actual)
		for i := range diff {
			diff[i] = math.Abs(diff[i])
		}
		return stat.Mean(diff, nil), nil
	case Accuracy:
		matches := 0
		for i := range predicted {
			if predicted[i] == actual[i] {
				matches++
			}
		}
		return float64(matches) / float64(len(predicted)), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMetric, kind)
	}
}

// IsNewBest reports whether candidate strictly beats previous under the given
// direction. A tie is never a new best.
func IsNewBest(candidate, previous float64, d Direction) bool {
	if d == Min {
		return candidate < previous
	}
	return candidate > previous
}

// EmptyBest is the sentinel best score for a user with no submissions. It
// guarantees every first real score is reported as a new best.
func EmptyBest(d Direction) float64 {
	if d == Min {
		return math.Inf(1)
	}
	return math.Inf(-1)
}
