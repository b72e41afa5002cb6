package export

import (
	"encoding/json"
	"math"
)

// Float is a table value in JSON payloads. Non-finite values encode as null:
// report files carry Infinity for cases that have not resolved yet, and JSON
// has no literal for it.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Floats converts values for encoding. The result is never nil.
func Floats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

// FloatMap converts every value of m for encoding.
func FloatMap[K comparable](m map[K]float64) map[K]Float {
	out := make(map[K]Float, len(m))
	for k, v := range m {
		out[k] = Float(v)
	}
	return out
}

// FloatColumns converts every column of m for encoding.
func FloatColumns(m map[string][]float64) map[string][]Float {
	out := make(map[string][]Float, len(m))
	for k, v := range m {
		out[k] = Floats(v)
	}
	return out
}
