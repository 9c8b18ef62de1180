package backend

import (
	"fmt"
	"sync"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// Hyperparameters are performance knobs forwarded to a backend. They never
// change results.
type Hyperparameters struct {
	// CPUMacroBlock is the number of rows accumulated per parallel block.
	// Zero means the backend default.
	CPUMacroBlock int `toml:"cpu_macro_block" json:"cpu_macro_block"`
}

// IsDefault reports whether every field holds its default value.
func (h Hyperparameters) IsDefault() bool {
	return h == Hyperparameters{}
}

// Validate checks the knob ranges.
func (h Hyperparameters) Validate() error {
	if h.CPUMacroBlock < 0 {
		return scigoErrors.NewConfigurationError("cpu_macro_block", "must be non-negative", h.CPUMacroBlock)
	}
	return nil
}

// Algorithm/operation pairs that accept hyperparameters.
var knownHyperparameterTargets = map[string]bool{
	"linear_regression/train":  true,
	"covariance/compute":       true,
	"basic_statistics/compute": true,
}

var (
	hpMu       sync.RWMutex
	hpRegistry = map[string]Hyperparameters{}
)

func hpKey(algorithm, op string) string {
	return fmt.Sprintf("%s/%s", algorithm, op)
}

// SetHyperparameters registers an override for algorithm/op, e.g.
// ("linear_regression", "train").
func SetHyperparameters(algorithm, op string, hp Hyperparameters) error {
	key := hpKey(algorithm, op)
	if !knownHyperparameterTargets[key] {
		return scigoErrors.NewConfigurationError("hyperparameters", "unknown algorithm/operation", key)
	}
	if err := hp.Validate(); err != nil {
		return err
	}
	hpMu.Lock()
	defer hpMu.Unlock()
	hpRegistry[key] = hp
	return nil
}

// GetHyperparameters returns the override for algorithm/op, or the zero
// value when none is registered.
func GetHyperparameters(algorithm, op string) Hyperparameters {
	hpMu.RLock()
	defer hpMu.RUnlock()
	return hpRegistry[hpKey(algorithm, op)]
}

// ResetHyperparameters clears every override.
func ResetHyperparameters() {
	hpMu.Lock()
	defer hpMu.Unlock()
	hpRegistry = map[string]Hyperparameters{}
}
