package basicstats

import (
	"strings"

	"github.com/YuminosukeSato/scigo-accel/backend"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// ResultOption identifies one statistic.
type ResultOption int

const (
	Min ResultOption = iota
	Max
	Sum
	Mean
	Variance
	Variation
	SumSquares
	StandardDeviation
	SumSquaresCentered
	SecondOrderRawMoment
)

// AllResultOptions lists every statistic in canonical order.
var AllResultOptions = []ResultOption{
	Min, Max, Sum, Mean, Variance, Variation,
	SumSquares, StandardDeviation, SumSquaresCentered, SecondOrderRawMoment,
}

// String returns the backend token of o, e.g. "sum_squares".
func (o ResultOption) String() string {
	if o < 0 || int(o) >= len(backend.AllStatistics) {
		return "unknown"
	}
	return backend.AllStatistics[o]
}

// ParseResultOption parses a single statistic token.
func ParseResultOption(s string) (ResultOption, error) {
	tok := strings.ToLower(strings.TrimSpace(s))
	for i, name := range backend.AllStatistics {
		if name == tok {
			return ResultOption(i), nil
		}
	}
	return 0, scigoErrors.NewConfigurationError("result_options", "unknown statistic", s)
}

// parseResultOptions expands "all" and drops duplicates, keeping the
// canonical order.
func parseResultOptions(tokens []string) ([]ResultOption, error) {
	seen := make(map[ResultOption]bool)
	for _, tok := range tokens {
		if strings.EqualFold(strings.TrimSpace(tok), "all") {
			for _, o := range AllResultOptions {
				seen[o] = true
			}
			continue
		}
		o, err := ParseResultOption(tok)
		if err != nil {
			return nil, err
		}
		seen[o] = true
	}

	var out []ResultOption
	for _, o := range AllResultOptions {
		if seen[o] {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, scigoErrors.NewConfigurationError("result_options", "at least one statistic is required", tokens)
	}
	return out, nil
}

func joinResultOptions(opts []ResultOption) string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.String()
	}
	return backend.JoinResultOptions(names)
}

// Result holds the computed statistics, one value per feature. Statistics
// that were not requested are nil.
type Result struct {
	Min                  []float64
	Max                  []float64
	Sum                  []float64
	Mean                 []float64
	Variance             []float64
	Variation            []float64
	SumSquares           []float64
	StandardDeviation    []float64
	SumSquaresCentered   []float64
	SecondOrderRawMoment []float64
}

func (r *Result) field(o ResultOption) *[]float64 {
	switch o {
	case Min:
		return &r.Min
	case Max:
		return &r.Max
	case Sum:
		return &r.Sum
	case Mean:
		return &r.Mean
	case Variance:
		return &r.Variance
	case Variation:
		return &r.Variation
	case SumSquares:
		return &r.SumSquares
	case StandardDeviation:
		return &r.StandardDeviation
	case SumSquaresCentered:
		return &r.SumSquaresCentered
	case SecondOrderRawMoment:
		return &r.SecondOrderRawMoment
	default:
		return nil
	}
}

// Get returns a copy of statistic o.
func (r *Result) Get(o ResultOption) ([]float64, error) {
	f := r.field(o)
	if f == nil {
		return nil, scigoErrors.NewValueError("Result.Get", "unknown statistic")
	}
	if *f == nil {
		return nil, scigoErrors.NewValueError("Result.Get", o.String()+" was not requested")
	}
	return append([]float64(nil), *f...), nil
}

// Clone returns a deep copy. Statistics that were not requested stay nil.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{}
	for _, o := range AllResultOptions {
		if v := *r.field(o); v != nil {
			*out.field(o) = append([]float64(nil), v...)
		}
	}
	return out
}

func resultFromBackend(op string, res *backend.BasicStatisticsResult, opts []ResultOption) (*Result, error) {
	r := &Result{}
	for _, o := range opts {
		v, ok := res.Values[o.String()]
		if !ok {
			return nil, scigoErrors.NewModelError(op, "backend omitted "+o.String(), nil)
		}
		*r.field(o) = append([]float64(nil), v...)
	}
	return r, nil
}

func (r *Result) attributes() map[string][]float64 {
	attrs := make(map[string][]float64)
	for _, o := range AllResultOptions {
		if v := *r.field(o); v != nil {
			attrs[o.String()] = append([]float64(nil), v...)
		}
	}
	return attrs
}

func resultFromAttributes(attrs map[string][]float64) *Result {
	if len(attrs) == 0 {
		return nil
	}
	r := &Result{}
	for _, o := range AllResultOptions {
		if v, ok := attrs[o.String()]; ok {
			*r.field(o) = append([]float64(nil), v...)
		}
	}
	return r
}
