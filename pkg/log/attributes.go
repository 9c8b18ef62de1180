// Standard attribute keys shared by all log call sites.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that logs can be filtered by prefix.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "IncrementalEmpiricalCovariance", "IncrementalRidge"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the estimator lifecycle.
	PhaseKey = "ml.phase"

	// BackendKey names the compute backend that served a call.
	BackendKey = "backend.name"

	// MethodKey names the backend computation method ("dense", "norm_eq", ...).
	MethodKey = "backend.method"
)

// Data shape.
const (
	// SamplesKey indicates the number of rows in a batch or accumulated in total.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of columns.
	FeaturesKey = "data.features"

	// TargetsKey indicates the number of regression targets.
	TargetsKey = "data.targets"

	// DataTypeKey specifies the element type ("float32", "float64").
	DataTypeKey = "data.type"

	// BatchSizeKey indicates the number of rows in the current batch.
	BatchSizeKey = "data.batch_size"

	// BatchIndexKey is the zero-based index of a batch within a streaming fit.
	BatchIndexKey = "data.batch_index"
)

// Performance and results.
const (
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records the coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// HyperParamsKey contains backend hyperparameters.
	HyperParamsKey = "model.hyperparams"

	// RegularizationKey records the ridge penalty.
	RegularizationKey = "hyperparams.regularization"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit         = "fit"
	OperationPartialFit  = "partial_fit"
	OperationFinalizeFit = "finalize_fit"
	OperationPredict     = "predict"
	OperationScore       = "score"
	OperationSnapshot    = "snapshot"
	OperationRestore     = "restore"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInsufficientData  = "INSUFFICIENT_DATA"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
