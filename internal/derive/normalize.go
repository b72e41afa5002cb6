package derive

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

// DefaultWindow is the moving average window used for chart overlays.
const DefaultWindow = 7

// Normalization selects a normalisation of each series.
type Normalization string

const (
	NormalizeNone   Normalization = ""
	NormalizeMinMax Normalization = "minmax"
	NormalizeAbs    Normalization = "signed"
	NormalizeMax    Normalization = "max"
)

// ParseNormalization accepts the names of the normalisations; empty means
// none.
func ParseNormalization(s string) (Normalization, error) {
	n := Normalization(s)
	if _, err := n.fn(); err != nil {
		return NormalizeNone, err
	}
	return n, nil
}

func (n Normalization) fn() (func(domain.Series) (domain.Series, error), error) {
	switch n {
	case NormalizeNone:
		return func(s domain.Series) (domain.Series, error) { return s, nil }, nil
	case NormalizeMinMax:
		return Normalize, nil
	case NormalizeAbs:
		return NormalizeSigned, nil
	case NormalizeMax:
		return NormalizeToMax, nil
	default:
		return nil, fmt.Errorf("unknown normalization %q (want minmax, signed or max)", string(n))
	}
}

// Normalize maps s linearly onto [0, 1] using its minimum and maximum.
func Normalize(s domain.Series) (domain.Series, error) {
	lo, hi, err := bounds("normalize", s.Values)
	if err != nil {
		return domain.Series{}, err
	}
	return rescale(s, lo, hi)
}

// NormalizeSigned rescales s using the minimum and maximum of its absolute
// values, keeping the sign of oscillating metrics such as growth deltas.
func NormalizeSigned(s domain.Series) (domain.Series, error) {
	abs := make([]float64, len(s.Values))
	for i, v := range s.Values {
		abs[i] = math.Abs(v)
	}
	lo, hi, err := bounds("normalize signed", abs)
	if err != nil {
		return domain.Series{}, err
	}
	return rescale(s, lo, hi)
}

// NormalizeToMax divides s by its maximum.
func NormalizeToMax(s domain.Series) (domain.Series, error) {
	hi, err := stats.Max(stats.Float64Data(s.Values))
	if err != nil {
		return domain.Series{}, domain.Degenerate("normalize to max", "%s: %v", s.Name, err)
	}
	if hi == 0 {
		return domain.Series{}, domain.Degenerate("normalize to max", "%s: maximum is 0", s.Name)
	}
	return s.Scale(1 / hi), nil
}

// RollingMean returns the trailing mean over window points. The first
// window-1 points have no full window and are dropped.
func RollingMean(s domain.Series, window int) (domain.Series, error) {
	if window < 1 {
		return domain.Series{}, domain.Degenerate("rolling mean", "window %d", window)
	}
	out := domain.Series{Name: s.Name}
	for i := window - 1; i < len(s.Values); i++ {
		m, err := stats.Mean(stats.Float64Data(s.Values[i-window+1 : i+1]))
		if err != nil {
			return domain.Series{}, domain.Degenerate("rolling mean", "%s: %v", s.Name, err)
		}
		out.Index = append(out.Index, s.Index[i])
		out.Values = append(out.Values, m)
	}
	return out, nil
}

func bounds(op string, values []float64) (float64, float64, error) {
	data := stats.Float64Data(values)
	lo, err := stats.Min(data)
	if err != nil {
		return 0, 0, domain.Degenerate(op, "%v", err)
	}
	hi, err := stats.Max(data)
	if err != nil {
		return 0, 0, domain.Degenerate(op, "%v", err)
	}
	if hi == lo {
		return 0, 0, domain.Degenerate(op, "constant input %v", hi)
	}
	return lo, hi, nil
}

func rescale(s domain.Series, lo, hi float64) (domain.Series, error) {
	out := domain.Series{Name: s.Name, Index: append(s.Index[:0:0], s.Index...), Values: make([]float64, len(s.Values))}
	for i, v := range s.Values {
		out.Values[i] = (v - lo) / (hi - lo)
	}
	return out, nil
}
