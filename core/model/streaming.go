package model

import (
	"context"
)

// Batch represents a data batch for streaming learning. Y is nil for
// unsupervised estimators.
type Batch struct {
	X any
	Y any
}

// PartialFitFunc feeds one batch to an estimator.
type PartialFitFunc func(b Batch) error

// FitStream reads batches from dataChan and passes each to fit until the
// channel is closed, the context is cancelled or fit fails. It returns the
// number of batches consumed.
//
//	n, err := model.FitStream(ctx, batches, func(b model.Batch) error {
//	    return est.PartialFit(b.X, b.Y)
//	})
func FitStream(ctx context.Context, dataChan <-chan Batch, fit PartialFitFunc) (int, error) {
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case b, ok := <-dataChan:
			if !ok {
				return n, nil
			}
			if err := fit(b); err != nil {
				return n, err
			}
			n++
		}
	}
}
