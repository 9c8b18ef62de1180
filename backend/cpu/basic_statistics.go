package cpu

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

type basicStatistics struct{}

func (basicStatistics) PartialCompute(params backend.Params, prior *backend.BasicStatisticsPartial, x, weights *table.Table) (_ *backend.BasicStatisticsPartial, err error) {
	const op = "cpu.BasicStatistics.PartialCompute"
	defer scigoErrors.Recover(&err, op)

	n, p := x.Dims()
	if prior != nil && prior.NRows > 0 && prior.NFeatures != p {
		return nil, scigoErrors.NewShapeError(op, prior.NFeatures, p, 1)
	}
	if weights != nil && weights.Rows() != n {
		return nil, scigoErrors.NewShapeError(op, n, weights.Rows(), 0)
	}
	if n == 0 {
		if prior == nil {
			return backend.NewBasicStatisticsPartial(p), nil
		}
		return prior.Clone(), nil
	}

	if weights != nil {
		x = applyWeights(x, weights)
	}

	hp := backend.GetHyperparameters("basic_statistics", "compute")
	batch, err := reduceBlocks(x, blockSize(hp), statisticsBlock, (*backend.BasicStatisticsPartial).Merge)
	if err != nil {
		return nil, err
	}
	return prior.Merge(batch)
}

func (basicStatistics) FinalizeCompute(params backend.Params, partial *backend.BasicStatisticsPartial) (_ *backend.BasicStatisticsResult, err error) {
	const op = "cpu.BasicStatistics.FinalizeCompute"
	defer scigoErrors.Recover(&err, op)

	if partial == nil || partial.NRows == 0 {
		return nil, scigoErrors.NewInsufficientDataError(op, 1, 0)
	}
	requested := backend.SplitResultOptions(params.ResultOptions)
	if len(requested) == 0 {
		requested = backend.AllStatistics
	}
	for _, name := range requested {
		if !backend.IsStatistic(name) {
			return nil, scigoErrors.NewConfigurationError("result_options", "unknown statistic", name)
		}
	}

	p := partial.NFeatures
	n := float64(partial.NRows)
	values := make(map[string][]float64, len(requested))
	for _, name := range requested {
		v := make([]float64, p)
		for j := 0; j < p; j++ {
			mean := partial.Sums[j] / n
			variance := math.NaN()
			if partial.NRows > 1 {
				variance = partial.SumSquaresCentered[j] / (n - 1)
			}
			switch name {
			case backend.StatMin:
				v[j] = partial.Min[j]
			case backend.StatMax:
				v[j] = partial.Max[j]
			case backend.StatSum:
				v[j] = partial.Sums[j]
			case backend.StatMean:
				v[j] = mean
			case backend.StatVariance:
				v[j] = variance
			case backend.StatStandardDeviation:
				v[j] = math.Sqrt(variance)
			case backend.StatVariation:
				v[j] = math.Sqrt(variance) / mean
			case backend.StatSumSquares:
				v[j] = partial.SumSquares[j]
			case backend.StatSumSquaresCentered:
				v[j] = partial.SumSquaresCentered[j]
			case backend.StatSecondOrderRawMoment:
				v[j] = partial.SumSquares[j] / n
			}
		}
		values[name] = params.FPType.RoundSlice(v)
	}
	return &backend.BasicStatisticsResult{Values: values}, nil
}

func (s basicStatistics) Compute(params backend.Params, x, weights *table.Table) (*backend.BasicStatisticsResult, error) {
	partial, err := s.PartialCompute(params, nil, x, weights)
	if err != nil {
		return nil, err
	}
	return s.FinalizeCompute(params, partial)
}

// applyWeights multiplies every row of x by its weight, keeping the storage
// layout of x.
func applyWeights(x, weights *table.Table) *table.Table {
	if c := x.CSR(); c != nil {
		scaled := &table.CSR{
			Rows:    c.Rows,
			Cols:    c.Cols,
			Data:    make([]float64, len(c.Data)),
			Indices: c.Indices,
			IndPtr:  c.IndPtr,
		}
		for i := 0; i < c.Rows; i++ {
			w := weights.At(i, 0)
			for k := c.IndPtr[i]; k < c.IndPtr[i+1]; k++ {
				scaled.Data[k] = c.Data[k] * w
			}
		}
		return table.NewSparse(scaled, x.DType())
	}

	n, p := x.Dims()
	data := make([]float64, n*p)
	for i := 0; i < n; i++ {
		floats.ScaleTo(data[i*p:(i+1)*p], weights.At(i, 0), x.RawRow(i))
	}
	scaled, _ := table.NewDense(n, p, data, x.DType())
	return scaled
}

// statisticsBlock computes the moments of one block. Sparse blocks only
// visit stored entries and account for the implicit zeros per column.
func statisticsBlock(x *table.Table) *backend.BasicStatisticsPartial {
	n, p := x.Dims()
	out := backend.NewBasicStatisticsPartial(p)
	out.NRows = n

	if c := x.CSR(); c != nil {
		nnz := make([]int, p)
		for k, j := range c.Indices {
			v := c.Data[k]
			nnz[j]++
			out.Sums[j] += v
			out.SumSquares[j] += v * v
			out.Min[j] = math.Min(out.Min[j], v)
			out.Max[j] = math.Max(out.Max[j], v)
		}
		for k, j := range c.Indices {
			d := c.Data[k] - out.Sums[j]/float64(n)
			out.SumSquaresCentered[j] += d * d
		}
		for j := 0; j < p; j++ {
			if zeros := n - nnz[j]; zeros > 0 {
				m := out.Sums[j] / float64(n)
				out.SumSquaresCentered[j] += float64(zeros) * m * m
				out.Min[j] = math.Min(out.Min[j], 0)
				out.Max[j] = math.Max(out.Max[j], 0)
			}
		}
		return out
	}

	for i := 0; i < n; i++ {
		row := x.RawRow(i)
		floats.Add(out.Sums, row)
		for j, v := range row {
			out.SumSquares[j] += v * v
			out.Min[j] = math.Min(out.Min[j], v)
			out.Max[j] = math.Max(out.Max[j], v)
		}
	}
	for i := 0; i < n; i++ {
		for j, v := range x.RawRow(i) {
			d := v - out.Sums[j]/float64(n)
			out.SumSquaresCentered[j] += d * d
		}
	}
	return out
}
