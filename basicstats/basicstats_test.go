package basicstats

import (
	"bytes"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

func randomData(rows, cols int) *mat.Dense {
	dist := distuv.Normal{Mu: 5, Sigma: 2}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

func TestParseResultOptions(t *testing.T) {
	opts, err := parseResultOptions([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, AllResultOptions, opts)

	opts, err = parseResultOptions([]string{"variance", " MEAN ", "min", "mean"})
	require.NoError(t, err)
	assert.Equal(t, []ResultOption{Min, Mean, Variance}, opts)
	assert.Equal(t, "min|mean|variance", joinResultOptions(opts))

	_, err = parseResultOptions([]string{"median"})
	var ce *scigoErrors.ConfigurationError
	assert.True(t, scigoErrors.As(err, &ce))

	_, err = parseResultOptions(nil)
	assert.True(t, scigoErrors.As(err, &ce))

	assert.Equal(t, "second_order_raw_moment", SecondOrderRawMoment.String())
	assert.Equal(t, "unknown", ResultOption(42).String())
}

func TestFit_MatchesGonum(t *testing.T) {
	x := randomData(200, 3)
	bs := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, bs.Fit(x, nil))
	assert.Equal(t, backend.MethodDense, bs.Method())

	res, err := bs.Result()
	require.NoError(t, err)
	for j := 0; j < 3; j++ {
		col := mat.Col(nil, j, x)
		mean, variance := stat.MeanVariance(col, nil)
		sq := floats.Dot(col, col)

		assert.InDelta(t, floats.Min(col), res.Min[j], 1e-12)
		assert.InDelta(t, floats.Max(col), res.Max[j], 1e-12)
		assert.InDelta(t, floats.Sum(col), res.Sum[j], 1e-9)
		assert.InDelta(t, mean, res.Mean[j], 1e-12)
		assert.InDelta(t, variance, res.Variance[j], 1e-9)
		assert.InDelta(t, math.Sqrt(variance), res.StandardDeviation[j], 1e-9)
		assert.InDelta(t, math.Sqrt(variance)/mean, res.Variation[j], 1e-9)
		assert.InDelta(t, sq, res.SumSquares[j], 1e-8)
		assert.InDelta(t, sq/200, res.SecondOrderRawMoment[j], 1e-10)
		assert.InDelta(t, variance*199, res.SumSquaresCentered[j], 1e-8)
	}
}

func TestFit_AllMatchesIndividual(t *testing.T) {
	x := randomData(50, 4)
	all := NewBasicStatistics(WithResultOptions("all"), WithLogger(quietLogger()))
	require.NoError(t, all.Fit(x, nil))

	for _, opt := range AllResultOptions {
		t.Run(opt.String(), func(t *testing.T) {
			single := NewBasicStatistics(WithResultOptions(opt.String()), WithLogger(quietLogger()))
			require.NoError(t, single.Fit(x, nil))

			want, err := all.Get(opt)
			require.NoError(t, err)
			got, err := single.Get(opt)
			require.NoError(t, err)
			assert.InDeltaSlice(t, want, got, 1e-12)
		})
	}
}

func TestFit_NotRequested(t *testing.T) {
	bs := NewBasicStatistics(WithResultOptions("min", "max"), WithLogger(quietLogger()))
	require.NoError(t, bs.Fit([][]float64{{1, 2}, {3, 4}}, nil))
	assert.Equal(t, []string{"min", "max"}, bs.ResultOptions())

	_, err := bs.Get(Mean)
	var ve *scigoErrors.ValueError
	assert.True(t, scigoErrors.As(err, &ve))

	res, _ := bs.Result()
	assert.Nil(t, res.Mean)
	assert.Equal(t, []float64{3, 4}, res.Max)
}

func TestFit_Weights(t *testing.T) {
	x := [][]float64{{1, 10}, {2, 20}, {3, 30}}
	w := []float64{2, 0, 1}

	weighted := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, weighted.Fit(x, w))

	scaled := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, scaled.Fit([][]float64{{2, 20}, {0, 0}, {3, 30}}, nil))

	for _, opt := range AllResultOptions {
		want, _ := scaled.Get(opt)
		got, err := weighted.Get(opt)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, got, 1e-12, opt.String())
	}

	err := NewBasicStatistics().Fit(x, []float64{1, 2})
	var shapeErr *scigoErrors.ShapeError
	require.True(t, scigoErrors.As(err, &shapeErr))
	assert.Equal(t, 0, shapeErr.Axis)

	assert.Error(t, NewBasicStatistics().Fit(x, []float64{1, math.NaN(), 1}))
}

func TestFit_SparseMatchesDense(t *testing.T) {
	dense := mat.NewDense(5, 3, []float64{
		1, 0, 0,
		0, 0, 5,
		2, 0, -1,
		0, 3, 0,
		0, 0, 0,
	})
	w := []float64{1, 2, 0.5, 1, 3}

	d := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, d.Fit(dense, w))
	s := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, s.Fit(table.NewCSRFromDense(dense), w))
	assert.Equal(t, backend.MethodSparse, s.Method())

	for _, opt := range AllResultOptions {
		want, _ := d.Get(opt)
		got, err := s.Get(opt)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, got, 1e-12, opt.String())
	}
}

func TestResult_ReturnsCopy(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}}
	bs := NewBasicStatistics(WithResultOptions("mean", "max"), WithLogger(quietLogger()))
	require.NoError(t, bs.Fit(x, nil))
	inc := NewIncrementalBasicStatistics(WithResultOptions("mean", "max"), WithLogger(quietLogger()))
	require.NoError(t, inc.PartialFit(x, nil))

	for name, result := range map[string]func() (*Result, error){
		"batch":       bs.Result,
		"incremental": inc.Result,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := result()
			require.NoError(t, err)
			res.Mean[0] = 100
			res.Max = nil

			again, err := result()
			require.NoError(t, err)
			assert.Equal(t, []float64{2, 3}, again.Mean)
			assert.Equal(t, []float64{3, 4}, again.Max)
			assert.Nil(t, again.Variance)
		})
	}
}

func TestScalar(t *testing.T) {
	bs := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, bs.Fit([]float64{1, 2, 3, 4}, nil))

	mean, err := bs.Scalar(Mean)
	require.NoError(t, err)
	assert.Equal(t, 2.5, mean)
	variance, err := bs.Scalar(Variance)
	require.NoError(t, err)
	assert.InDelta(t, 5.0/3.0, variance, 1e-12)

	require.NoError(t, bs.Fit([][]float64{{1}, {2}}, nil))
	_, err = bs.Scalar(Mean)
	assert.Error(t, err, "2-D input with one column is not scalar")
}

func TestSingleRowVarianceIsNaN(t *testing.T) {
	bs := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, bs.Fit([][]float64{{4, 5}}, nil))
	v, err := bs.Get(Variance)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v[0]))
	mean, _ := bs.Get(Mean)
	assert.Equal(t, []float64{4, 5}, mean)
}

func TestFit_Errors(t *testing.T) {
	_, err := NewBasicStatistics().Get(Min)
	var nfe *scigoErrors.NotFittedError
	assert.True(t, scigoErrors.As(err, &nfe))

	err = NewBasicStatistics(WithResultOptions("mode")).Fit([]float64{1}, nil)
	var ce *scigoErrors.ConfigurationError
	assert.True(t, scigoErrors.As(err, &ce))

	err = NewBasicStatistics().Fit([][]float64{}, nil)
	assert.Error(t, err)

	err = NewBasicStatistics().Fit("not a matrix", nil)
	var de *scigoErrors.DtypeMismatchError
	assert.True(t, scigoErrors.As(err, &de))
}

func TestFit_Float32(t *testing.T) {
	bs := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, bs.Fit([]float32{0.1, 0.2, 0.3}, nil))
	mean, err := bs.Scalar(Mean)
	require.NoError(t, err)
	assert.Equal(t, float64(float32(mean)), mean)
	assert.InDelta(t, 0.2, mean, 1e-6)
}

func TestIncremental_MatchesBatch(t *testing.T) {
	x := randomData(90, 3)
	dist := distuv.Uniform{Min: 0, Max: 2}
	w := make([]float64, 90)
	for i := range w {
		w[i] = dist.Rand()
	}

	batch := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, batch.Fit(x, w))

	for _, batches := range []int{1, 2, 5, 9} {
		t.Run(fmt.Sprintf("batches=%d", batches), func(t *testing.T) {
			inc := NewIncrementalBasicStatistics(WithLogger(quietLogger()))
			step := 90 / batches
			for start := 0; start < 90; start += step {
				end := min(start+step, 90)
				require.NoError(t, inc.PartialFit(x.Slice(start, end, 0, 3), w[start:end]))
			}
			for _, opt := range AllResultOptions {
				want, _ := batch.Get(opt)
				got, err := inc.Get(opt)
				require.NoError(t, err)
				assert.InDeltaSlice(t, want, got, 1e-9, opt.String())
			}
		})
	}
}

func TestIncremental_ShuffledPartition(t *testing.T) {
	x := randomData(70, 3)
	dist := distuv.Uniform{Min: 0.5, Max: 2}
	w := make([]float64, 70)
	for i := range w {
		w[i] = dist.Rand()
	}

	batch := NewBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, batch.Fit(x, w))

	bounds := []int{0, 1, 2, 30, 55, 70}
	for _, seed := range []uint64{1, 2, 3} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			xs := mat.NewDense(70, 3, nil)
			ws := make([]float64, 70)
			for i, src := range rand.New(rand.NewPCG(seed, seed+1)).Perm(70) {
				xs.SetRow(i, x.RawRowView(src))
				ws[i] = w[src]
			}

			inc := NewIncrementalBasicStatistics(WithLogger(quietLogger()))
			for i := 1; i < len(bounds); i++ {
				lo, hi := bounds[i-1], bounds[i]
				require.NoError(t, inc.PartialFit(xs.Slice(lo, hi, 0, 3), ws[lo:hi]))
			}
			for _, opt := range AllResultOptions {
				want, _ := batch.Get(opt)
				got, err := inc.Get(opt)
				require.NoError(t, err)
				assert.InDeltaSlice(t, want, got, 1e-9, opt.String())
			}
		})
	}
}

func TestIncremental_FinalizeAndErrors(t *testing.T) {
	inc := NewIncrementalBasicStatistics(WithResultOptions("sum", "mean"), WithLogger(quietLogger()))

	var ide *scigoErrors.InsufficientDataError
	assert.True(t, scigoErrors.As(inc.FinalizeFit(), &ide))

	require.NoError(t, inc.PartialFit([]float64{1, 2}, nil))
	assert.True(t, inc.NeedsFinalize())
	require.NoError(t, inc.FinalizeFit())
	assert.False(t, inc.NeedsFinalize())
	require.NoError(t, inc.FinalizeFit())

	sum, err := inc.Scalar(Sum)
	require.NoError(t, err)
	assert.Equal(t, 3.0, sum)

	err = inc.PartialFit([][]float64{{1, 2}}, nil)
	var shapeErr *scigoErrors.ShapeError
	assert.True(t, scigoErrors.As(err, &shapeErr))

	inc.Reset()
	assert.Equal(t, 0, inc.NFeaturesIn())
	assert.Nil(t, inc.Partial())
	assert.Equal(t, backend.MethodByDefault, inc.Method())
}

func TestIncremental_SnapshotRoundTrip(t *testing.T) {
	x := randomData(40, 2)
	first, second := x.Slice(0, 20, 0, 2), x.Slice(20, 40, 0, 2)

	orig := NewIncrementalBasicStatistics(WithResultOptions("mean", "variance", "max"), WithLogger(quietLogger()))
	require.NoError(t, orig.PartialFit(first, nil))

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(orig, &buf))
	assert.True(t, orig.NeedsFinalize())

	loaded := NewIncrementalBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, model.LoadModelFromReader(loaded, &buf))
	assert.False(t, loaded.NeedsFinalize())

	want, _ := orig.Get(Variance)
	got, err := loaded.Get(Variance)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-12)

	_, err = loaded.Get(Sum)
	assert.Error(t, err, "result options are restored")

	require.NoError(t, orig.PartialFit(second, nil))
	require.NoError(t, loaded.PartialFit(second, nil))
	want, _ = orig.Get(Max)
	got, _ = loaded.Get(Max)
	assert.Equal(t, want, got)
	assert.Equal(t, backend.MethodDense, loaded.Method())
}

func TestIncremental_SingleRowJSONSnapshot(t *testing.T) {
	orig := NewIncrementalBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, orig.PartialFit([][]float64{{4, 5}}, nil))

	data, err := model.MarshalSnapshotJSON(orig)
	require.NoError(t, err)

	loaded := NewIncrementalBasicStatistics(WithLogger(quietLogger()))
	require.NoError(t, model.UnmarshalSnapshotJSON(loaded, data))

	v, err := loaded.Get(Variance)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v[0]))

	require.NoError(t, loaded.PartialFit([][]float64{{6, 7}}, nil))
	v, err = loaded.Get(Variance)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 2}, v, 1e-12)
}

func TestLogging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	bs := NewBasicStatistics(WithLogger(logger))
	require.NoError(t, bs.Fit(table.NewCSRFromDense(mat.NewDense(2, 2, []float64{1, 0, 0, 1})), nil))
	assert.True(t, logger.ContainsField(log.MethodKey, "sparse"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, basicStatisticsName))
}
