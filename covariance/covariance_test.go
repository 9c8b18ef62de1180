package covariance

import (
	"bytes"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/backend/cpu"
	"github.com/YuminosukeSato/scigo-accel/backend/mock"
	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

func uniform(rows, cols int) *mat.Dense {
	dist := distuv.Uniform{Min: -0.3, Max: 0.7}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

// splitRows splits m into k nearly equal contiguous batches.
func splitRows(m *mat.Dense, k int) []mat.Matrix {
	r, c := m.Dims()
	var out []mat.Matrix
	start := 0
	for i := 0; i < k; i++ {
		size := r / k
		if i < r%k {
			size++
		}
		out = append(out, m.Slice(start, start+size, 0, c))
		start += size
	}
	return out
}

func TestGoldData(t *testing.T) {
	tests := []struct {
		name     string
		x        [][]float64
		bias     bool
		wantCov  []float64
		wantMean []float64
	}{
		{"constant unbiased", [][]float64{{0, 1}, {0, 1}}, false, []float64{0, 0, 0, 0}, []float64{0, 1}},
		{"unbiased", [][]float64{{1, 2}, {3, 6}}, false, []float64{2, 4, 4, 8}, []float64{2, 4}},
		{"constant biased", [][]float64{{0, 1}, {0, 1}}, true, []float64{0, 0, 0, 0}, []float64{0, 1}},
		{"biased", [][]float64{{1, 2}, {3, 6}}, true, []float64{1, 2, 2, 4}, []float64{2, 4}},
	}

	for _, tt := range tests {
		for _, dtype := range []table.DType{table.Float32, table.Float64} {
			t.Run(fmt.Sprintf("%s/%s", tt.name, dtype), func(t *testing.T) {
				est := NewIncrementalEmpiricalCovariance(WithBias(tt.bias), WithLogger(quietLogger()))
				for _, row := range tt.x {
					tbl, err := table.FromArray([][]float64{row})
					require.NoError(t, err)
					require.NoError(t, est.PartialFit(tbl.AsType(dtype)))
				}
				require.NoError(t, est.FinalizeFit())

				cov, err := est.Covariance()
				require.NoError(t, err)
				assert.InDeltaSlice(t, tt.wantCov, cov.RawMatrix().Data, 1e-6)

				loc, err := est.Location()
				require.NoError(t, err)
				assert.InDeltaSlice(t, tt.wantMean, loc, 1e-6)
				assert.Equal(t, dtype, est.DType())
			})
		}
	}
}

func TestPartialFit_MatchesBatch(t *testing.T) {
	x := uniform(300, 6)
	var unbiased mat.SymDense
	stat.CovarianceMatrix(&unbiased, x, nil)

	for _, bias := range []bool{false, true} {
		for _, batches := range []int{1, 2, 4, 7, 10} {
			t.Run(fmt.Sprintf("bias=%v/batches=%d", bias, batches), func(t *testing.T) {
				est := NewIncrementalEmpiricalCovariance(WithBias(bias), WithLogger(quietLogger()))
				for _, b := range splitRows(x, batches) {
					require.NoError(t, est.PartialFit(b))
				}
				cov, err := est.Covariance()
				require.NoError(t, err)

				want := mat.NewDense(6, 6, nil)
				want.Copy(&unbiased)
				if bias {
					want.Scale(299.0/300.0, want)
				}
				assert.True(t, mat.EqualApprox(want, cov, 1e-10))

				batch := NewEmpiricalCovariance(WithBias(bias), WithLogger(quietLogger()))
				require.NoError(t, batch.Fit(x))
				batchCov, err := batch.Covariance()
				require.NoError(t, err)
				assert.True(t, mat.EqualApprox(batchCov, cov, 1e-10))
			})
		}
	}
}

// permuteRows returns a copy of m with its rows in a seeded random order.
func permuteRows(m *mat.Dense, seed uint64) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	for i, src := range rand.New(rand.NewPCG(seed, seed+1)).Perm(r) {
		out.SetRow(i, m.RawRowView(src))
	}
	return out
}

func TestPartialFit_ShuffledPartition(t *testing.T) {
	x := uniform(120, 4)
	batch := NewEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, batch.Fit(x))
	wantCov, err := batch.Covariance()
	require.NoError(t, err)
	wantLoc, err := batch.Location()
	require.NoError(t, err)

	for _, seed := range []uint64{1, 2, 3} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			shuffled := permuteRows(x, seed)
			est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
			bounds := []int{0, 1, 17, 18, 63, 120}
			for i := 1; i < len(bounds); i++ {
				require.NoError(t, est.PartialFit(shuffled.Slice(bounds[i-1], bounds[i], 0, 4)))
			}

			cov, err := est.Covariance()
			require.NoError(t, err)
			assert.True(t, mat.EqualApprox(wantCov, cov, 1e-10))
			loc, err := est.Location()
			require.NoError(t, err)
			assert.InDeltaSlice(t, wantLoc, loc, 1e-12)
		})
	}
}

func TestFinalizeFit_Idempotent(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit(uniform(20, 3)))
	assert.True(t, est.NeedsFinalize())

	require.NoError(t, est.FinalizeFit())
	assert.False(t, est.NeedsFinalize())
	first, err := est.Covariance()
	require.NoError(t, err)

	require.NoError(t, est.FinalizeFit())
	second, err := est.Covariance()
	require.NoError(t, err)
	assert.Equal(t, first.RawMatrix().Data, second.RawMatrix().Data)
}

func TestAccessors_ImplicitFinalize(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}, {3, 6}}))
	loc, err := est.Location()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, loc)
	assert.False(t, est.NeedsFinalize())

	require.NoError(t, est.PartialFit([][]float64{{5, 10}}))
	assert.True(t, est.NeedsFinalize())
	loc, err = est.Location()
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, loc)
}

func TestNotFittedAndInsufficientData(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))

	_, err := est.Covariance()
	var nfe *scigoErrors.NotFittedError
	require.True(t, scigoErrors.As(err, &nfe))
	assert.Equal(t, "Covariance", nfe.Method)

	err = est.FinalizeFit()
	var ide *scigoErrors.InsufficientDataError
	require.True(t, scigoErrors.As(err, &ide))

	// a single row cannot give an unbiased estimate
	require.NoError(t, est.PartialFit([][]float64{{1, 2}}))
	err = est.FinalizeFit()
	require.True(t, scigoErrors.As(err, &ide))
	assert.Equal(t, 2, ide.Required)
	assert.True(t, est.NeedsFinalize(), "failed finalize leaves the estimator dirty")

	require.NoError(t, est.PartialFit([][]float64{{3, 4}}))
	assert.NoError(t, est.FinalizeFit())
}

func TestOneDimensionalInputIsOneFeature(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([]float64{1, 2, 3, 4}))
	assert.Equal(t, 1, est.NFeaturesIn())
	cov, err := est.Covariance()
	require.NoError(t, err)
	assert.InDelta(t, 5.0/3.0, cov.At(0, 0), 1e-12)
}

func TestPartialFit_FeatureMismatch(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2, 3}, {4, 5, 6}}))
	before := est.Partial()

	err := est.PartialFit([][]float64{{1, 2}})
	var shapeErr *scigoErrors.ShapeError
	require.True(t, scigoErrors.As(err, &shapeErr))
	assert.Equal(t, 3, shapeErr.Expected)
	assert.Equal(t, 2, shapeErr.Got)

	assert.Equal(t, before, est.Partial())
	assert.Equal(t, 2, est.NSamplesSeen())
}

func TestPartialFit_RejectsNonFinite(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	assert.Error(t, est.PartialFit([][]float64{{1, math.NaN()}}))
	assert.Error(t, est.PartialFit([][]float64{{math.Inf(1), 0}}))
	assert.Equal(t, 0, est.NSamplesSeen())
}

func TestPartialFit_DTypeFixedByFirstBatch(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float32{{1, 2}, {3, 4}}))
	require.NoError(t, est.PartialFit([][]float64{{0.1, 0.2}}))
	assert.Equal(t, table.Float32, est.DType())

	cov, err := est.Covariance()
	require.NoError(t, err)
	v := cov.At(0, 1)
	assert.Equal(t, float64(float32(v)), v)
}

func TestAssumeCentered(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 6}, {5, 7}}
	est := NewIncrementalEmpiricalCovariance(WithAssumeCentered(true), WithBias(true), WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit(x[:1]))
	require.NoError(t, est.PartialFit(x[1:]))

	loc, err := est.Location()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, loc)

	cov, err := est.Covariance()
	require.NoError(t, err)
	// XᵀX / n
	want := mat.NewDense(2, 2, []float64{35.0 / 3, 55.0 / 3, 55.0 / 3, 89.0 / 3})
	assert.True(t, mat.EqualApprox(want, cov, 1e-12))
}

func TestPrecisionAndMahalanobis(t *testing.T) {
	x := uniform(200, 3)
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit(x))

	cov, err := est.Covariance()
	require.NoError(t, err)
	prec, err := est.Precision()
	require.NoError(t, err)

	var id mat.Dense
	id.Mul(cov, prec)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, id.At(i, j), 1e-8)
		}
	}

	loc, err := est.Location()
	require.NoError(t, err)
	d, err := est.Mahalanobis([][]float64{loc})
	require.NoError(t, err)
	assert.InDelta(t, 0, d[0], 1e-12)

	_, err = est.Mahalanobis([][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestPrecision_Singular(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}, {2, 4}, {3, 6}}))
	prec, err := est.Precision()
	require.NoError(t, err)

	cov, _ := est.Covariance()
	// A·A⁺·A = A
	var tmp, back mat.Dense
	tmp.Mul(cov, prec)
	back.Mul(&tmp, cov)
	assert.True(t, mat.EqualApprox(cov, &back, 1e-9))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	x := uniform(10, 10)
	halves := splitRows(x, 2)

	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))

	// empty estimator
	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(est, &buf))
	loaded := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, model.LoadModelFromReader(loaded, &buf))
	assert.Equal(t, 0, loaded.NSamplesSeen())
	_, err := loaded.Covariance()
	assert.Error(t, err)

	require.NoError(t, est.PartialFit(halves[0]))
	require.NoError(t, loaded.PartialFit(halves[0]))
	assert.True(t, est.NeedsFinalize())

	buf.Reset()
	require.NoError(t, model.SaveModelToWriter(est, &buf))
	assert.True(t, est.NeedsFinalize(), "snapshot does not finalize the live estimator")

	loaded = NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, model.LoadModelFromReader(loaded, &buf))
	assert.False(t, loaded.NeedsFinalize())

	orig, restored := est.Partial(), loaded.Partial()
	assert.Equal(t, orig.NRows, restored.NRows)
	assert.InDeltaSlice(t, orig.Sums, restored.Sums, 1e-12)
	assert.InDeltaSlice(t, orig.CrossProduct, restored.CrossProduct, 1e-12)

	// resume
	require.NoError(t, est.PartialFit(halves[1]))
	require.NoError(t, loaded.PartialFit(halves[1]))
	assert.True(t, loaded.NeedsFinalize())

	want, err := est.Covariance()
	require.NoError(t, err)
	got, err := loaded.Covariance()
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))

	wantLoc, _ := est.Location()
	gotLoc, _ := loaded.Location()
	assert.InDeltaSlice(t, wantLoc, gotLoc, 1e-12)
}

func TestSnapshot_JSONKeepsParams(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithBias(true), WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}, {3, 6}}))

	data, err := model.MarshalSnapshotJSON(est)
	require.NoError(t, err)

	loaded := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, model.UnmarshalSnapshotJSON(loaded, data))
	cov, err := loaded.Covariance()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 2, 4}, cov.RawMatrix().Data, 1e-12)

	snap, err := est.Snapshot()
	require.NoError(t, err)
	snap.ModelType = "Ridge"
	assert.Error(t, NewIncrementalEmpiricalCovariance().Restore(snap))
}

func TestRestore_RequiresPartial(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}, {3, 6}}))
	snap, err := est.Snapshot()
	require.NoError(t, err)
	snap.Covariance = nil

	loaded := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	err = loaded.Restore(snap)
	var valueErr *scigoErrors.ValueError
	require.True(t, scigoErrors.As(err, &valueErr))
	assert.Equal(t, 0, loaded.NSamplesSeen(), "rejected snapshot leaves the estimator untouched")

	require.NoError(t, loaded.PartialFit([][]float64{{5, 10}, {7, 14}}))
	loc, err := loaded.Location()
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 12}, loc)
}

func TestSnapshot_FailedFinalize(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}}))
	_, err := est.Snapshot()
	assert.Error(t, err)
	assert.True(t, est.NeedsFinalize())
}

func TestReset(t *testing.T) {
	est := NewIncrementalEmpiricalCovariance(WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}, {3, 4}}))
	est.Reset()
	assert.Equal(t, 0, est.NFeaturesIn())
	assert.Nil(t, est.Partial())
	require.NoError(t, est.PartialFit([][]float64{{1, 2, 3}, {3, 4, 5}}))
	assert.Equal(t, 3, est.NFeaturesIn())
}

func TestWithMethod(t *testing.T) {
	err := NewIncrementalEmpiricalCovariance(WithMethod("sparse")).PartialFit([][]float64{{1}})
	var ce *scigoErrors.ConfigurationError
	require.True(t, scigoErrors.As(err, &ce))

	err = NewIncrementalEmpiricalCovariance(WithMethod("bogus")).PartialFit([][]float64{{1}})
	require.True(t, scigoErrors.As(err, &ce))

	assert.NoError(t, NewIncrementalEmpiricalCovariance(WithMethod("dense"), WithLogger(quietLogger())).PartialFit([][]float64{{1}}))
}

func TestBackendFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := fmt.Errorf("device lost")
	covBackend := mock.NewMockCovarianceBackend(ctrl)
	b := mock.NewMockBackend(ctrl)
	b.EXPECT().Name().Return("mock").AnyTimes()
	b.EXPECT().Capabilities().Return(backend.Capabilities{BiasedCovariance: true}).AnyTimes()
	b.EXPECT().Covariance().Return(covBackend).AnyTimes()

	cpuCov := cpu.New().Covariance()
	gomock.InOrder(
		covBackend.EXPECT().PartialCompute(gomock.Any(), gomock.Nil(), gomock.Any()).DoAndReturn(cpuCov.PartialCompute),
		covBackend.EXPECT().PartialCompute(gomock.Any(), gomock.Not(gomock.Nil()), gomock.Any()).Return(nil, boom),
		covBackend.EXPECT().FinalizeCompute(gomock.Any(), gomock.Any()).Return(nil, boom),
		covBackend.EXPECT().FinalizeCompute(gomock.Any(), gomock.Any()).DoAndReturn(cpuCov.FinalizeCompute),
	)

	est := NewIncrementalEmpiricalCovariance(WithBackend(b), WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}, {3, 6}}))

	err := est.PartialFit([][]float64{{5, 5}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, est.NSamplesSeen(), "failed batch is not counted")

	assert.ErrorIs(t, est.FinalizeFit(), boom)
	assert.True(t, est.NeedsFinalize())

	require.NoError(t, est.FinalizeFit())
	cov, err := est.Covariance()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 4, 4, 8}, cov.RawMatrix().Data, 1e-12)
}

func TestBiasRescaleWithoutNativeSupport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := mock.NewMockBackend(ctrl)
	b.EXPECT().Name().Return("legacy").AnyTimes()
	b.EXPECT().Capabilities().Return(backend.Capabilities{}).AnyTimes()
	b.EXPECT().Covariance().Return(cpu.New().Covariance()).AnyTimes()

	est := NewIncrementalEmpiricalCovariance(WithBackend(b), WithBias(true), WithLogger(quietLogger()))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}}))
	require.NoError(t, est.PartialFit([][]float64{{3, 6}}))
	cov, err := est.Covariance()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 2, 4}, cov.RawMatrix().Data, 1e-12)

	single := NewEmpiricalCovariance(WithBackend(b), WithBias(true), WithLogger(quietLogger()))
	require.NoError(t, single.Fit([][]float64{{7, 8}}))
	cov, err = single.Covariance()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, cov.RawMatrix().Data)
	loc, _ := single.Location()
	assert.Equal(t, []float64{7, 8}, loc)

	batch := NewEmpiricalCovariance(WithBackend(b), WithBias(true), WithLogger(quietLogger()))
	require.NoError(t, batch.Fit([][]float64{{1, 2}, {3, 6}}))
	cov, err = batch.Covariance()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 2, 4}, cov.RawMatrix().Data, 1e-12)
}

func TestEmpiricalCovariance_Errors(t *testing.T) {
	est := NewEmpiricalCovariance(WithLogger(quietLogger()))
	_, err := est.Location()
	var nfe *scigoErrors.NotFittedError
	assert.True(t, scigoErrors.As(err, &nfe))

	err = est.Fit([][]float64{{1, 2}})
	var ide *scigoErrors.InsufficientDataError
	assert.True(t, scigoErrors.As(err, &ide))

	require.NoError(t, est.Fit([][]float64{{1, 2}, {2, 1}, {0, 0}}))
	assert.Equal(t, 2, est.NFeaturesIn())

	// refit replaces the previous state
	require.NoError(t, est.Fit([]float64{1, 2, 3}))
	assert.Equal(t, 1, est.NFeaturesIn())
}

func TestLogging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	est := NewIncrementalEmpiricalCovariance(WithLogger(logger))
	require.NoError(t, est.PartialFit([][]float64{{1, 2}, {3, 4}}))
	require.NoError(t, est.FinalizeFit())

	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationPartialFit))
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationFinalizeFit))
	assert.True(t, logger.ContainsField(log.ModelNameKey, incrementalName))
	assert.True(t, logger.ContainsField(log.BackendKey, cpu.Name))
}
