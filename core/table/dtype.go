package table

import (
	"fmt"
	"strings"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// DType is the floating point precision of a Table.
type DType int

const (
	// Float64 is double precision.
	Float64 DType = iota
	// Float32 is single precision. Values are stored as float64 but are
	// always exactly representable as float32.
	Float32
)

// String returns the numpy-style name of the dtype.
func (d DType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// ParseDType parses "float64"/"double" or "float32"/"float".
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(s) {
	case "float64", "double":
		return Float64, nil
	case "float32", "float":
		return Float32, nil
	default:
		return Float64, scigoErrors.NewDtypeMismatchError("ParseDType", "", s)
	}
}

// Round returns v rounded to the precision of d.
func (d DType) Round(v float64) float64 {
	if d == Float32 {
		return float64(float32(v))
	}
	return v
}

// RoundSlice rounds every element of v in place and returns v.
func (d DType) RoundSlice(v []float64) []float64 {
	if d != Float32 {
		return v
	}
	for i := range v {
		v[i] = float64(float32(v[i]))
	}
	return v
}
