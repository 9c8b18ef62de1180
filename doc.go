// Package scigo provides incremental statistical estimators for Go,
// designed for data that arrives in batches and for backend services that
// cannot hold a whole dataset in memory.
//
// Every estimator accumulates a compact partial result (sums, moments or
// cross-products) batch by batch and derives its final estimate only when
// FinalizeFit is called or a result is read. Batches may be fed in any
// split; the finalized estimate matches a single fit on the concatenated
// data up to floating point tolerance.
//
// # Features
//
//   - Incremental fitting: PartialFit / FinalizeFit with implicit finalize on read
//   - Pluggable compute backends selected by name and capability
//   - Snapshots: gob and JSON serialization of fitted state and partial results
//   - Structured errors and logging built on cockroachdb/errors and zerolog
//   - TOML configuration of log level, backend and hyperparameters
//
// # Installation
//
//	go get github.com/YuminosukeSato/scigo-accel
//
// # Quick Start
//
// Fitting a regression over two batches:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scigo-accel/linear"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    model := linear.NewIncrementalLinearRegression()
//
//	    if err := model.PartialFit(mat.NewDense(2, 1, []float64{1, 2}), []float64{5, 7}); err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := model.PartialFit(mat.NewDense(2, 1, []float64{3, 4}), []float64{9, 11}); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    coef, err := model.Coef()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    intercept, _ := model.Intercept()
//	    fmt.Println(coef.At(0, 0), intercept[0]) // 2 3
//	}
//
// # Packages
//
//   - covariance: EmpiricalCovariance and IncrementalEmpiricalCovariance
//   - linear: LinearRegression, Ridge and their incremental variants
//   - basicstats: BasicStatistics and IncrementalBasicStatistics
//   - preprocessing: StandardScaler and MinMaxScaler on top of basicstats
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - config: TOML configuration loading
//   - backend: backend interface, partial results and registry
//   - backend/cpu: gonum-based reference backend
//   - core/table: tabular data adapter (dense, CSR, float32/float64)
//   - core/model: estimator state, snapshots and streaming helpers
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log: structured errors and logging
//
// # Backends
//
// Estimators use the default backend unless one is passed explicitly:
//
//	cov := covariance.NewIncrementalEmpiricalCovariance(
//	    covariance.WithBackend(myBackend),
//	)
//
// The cpu backend registers itself on import and is the default.
package scigo
