package backend

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// Method selects the computation kernel used by a backend.
type Method int

const (
	// MethodByDefault lets the backend choose.
	MethodByDefault Method = iota
	// MethodDense processes row-major dense input.
	MethodDense
	// MethodSparse processes CSR input.
	MethodSparse
	// MethodNormEq solves least squares through the normal equations.
	MethodNormEq
)

// String returns the backend token for m.
func (m Method) String() string {
	switch m {
	case MethodByDefault:
		return "by_default"
	case MethodDense:
		return "dense"
	case MethodSparse:
		return "sparse"
	case MethodNormEq:
		return "norm_eq"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod parses a method token.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "by_default", "defaultdense", "":
		return MethodByDefault, nil
	case "dense":
		return MethodDense, nil
	case "sparse":
		return MethodSparse, nil
	case "norm_eq":
		return MethodNormEq, nil
	default:
		return MethodByDefault, scigoErrors.NewConfigurationError("method", "unknown method", s)
	}
}

// MethodFor picks MethodSparse for CSR input and MethodDense otherwise.
func MethodFor(t *table.Table) Method {
	if t != nil && t.IsSparse() {
		return MethodSparse
	}
	return MethodDense
}

// Params is the configuration bag passed with every backend call.
type Params struct {
	FPType         table.DType
	Method         Method
	ResultOptions  string
	Bias           bool
	AssumeCentered bool
	FitIntercept   bool
	Alpha          float64
}

// Map renders the parameters with the key names used by native backends.
// Zero-valued optional fields are omitted.
func (p Params) Map() map[string]interface{} {
	m := map[string]interface{}{
		"fptype": fptypeName(p.FPType),
		"method": p.Method.String(),
	}
	if p.ResultOptions != "" {
		m["result_option"] = p.ResultOptions
	}
	if p.Bias {
		m["bias"] = true
	}
	if p.AssumeCentered {
		m["assume_centered"] = true
	}
	if p.FitIntercept {
		m["intercept"] = true
	}
	if p.Alpha != 0 {
		m["alpha"] = p.Alpha
	}
	return m
}

func fptypeName(d table.DType) string {
	if d == table.Float32 {
		return "float"
	}
	return "double"
}

// JoinResultOptions joins statistic names with "|".
func JoinResultOptions(opts []string) string {
	return strings.Join(opts, "|")
}

// SplitResultOptions splits a "|" separated list, dropping empty tokens.
func SplitResultOptions(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, "|") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
