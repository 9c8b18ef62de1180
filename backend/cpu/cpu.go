// Package cpu is the reference compute backend built on gonum.
//
// Importing the package registers the backend under the name "cpu", which is
// the default backend name.
package cpu

import (
	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/parallel"
	"github.com/YuminosukeSato/scigo-accel/core/table"
)

// Name is the registry name of the backend.
const Name = "cpu"

// defaultMacroBlock is the row block size used when no hyperparameter
// override is registered.
const defaultMacroBlock = 4096

// Backend implements backend.Backend.
type Backend struct{}

var _ backend.Backend = Backend{}

func init() {
	backend.Register(Backend{})
}

// New returns the cpu backend.
func New() Backend {
	return Backend{}
}

func (Backend) Name() string { return Name }

func (Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{BiasedCovariance: true, Sparse: true}
}

func (Backend) Covariance() backend.CovarianceBackend { return covariance{} }

func (Backend) LinearModel() backend.LinearModelBackend { return linearModel{} }

func (Backend) BasicStatistics() backend.BasicStatisticsBackend { return basicStatistics{} }

func blockSize(hp backend.Hyperparameters) int {
	if hp.CPUMacroBlock > 0 {
		return hp.CPUMacroBlock
	}
	return defaultMacroBlock
}

// reduceBlocks computes one partial per row block of x in parallel and
// merges them in block order, so the result does not depend on scheduling.
func reduceBlocks[P any](x *table.Table, block int, compute func(*table.Table) P, merge func(a, b P) (P, error)) (P, error) {
	n := parallel.NumBlocks(x.Rows(), block)
	parts := make([]P, n)
	parallel.ForEachBlock(x.Rows(), block, func(b, start, end int) {
		parts[b] = compute(x.Slice(start, end))
	})

	var acc P
	for i, part := range parts {
		if i == 0 {
			acc = part
			continue
		}
		var err error
		if acc, err = merge(acc, part); err != nil {
			return acc, err
		}
	}
	return acc, nil
}
