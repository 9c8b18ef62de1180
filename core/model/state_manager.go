package model

import (
	"sync"

	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// StateManager tracks the bookkeeping shared by incremental estimators:
// whether any batch was accepted, the fixed feature count and precision,
// the number of rows seen and the dirty flag.
type StateManager struct {
	mu sync.RWMutex

	Fitted        bool
	NFeatures     int
	NSamples      int
	DType         table.DType
	NeedsFinalize bool
}

// NewStateManager creates an empty StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether a batch has been accepted since the last Reset.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// NeedsFinalizeFlag reports the dirty flag.
func (s *StateManager) NeedsFinalizeFlag() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NeedsFinalize
}

// Check validates a batch against the fixed feature count and returns the
// dtype the batch has to be converted to. It does not modify the state.
func (s *StateManager) Check(op string, nFeatures int, dtype table.DType) (table.DType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.Fitted {
		return dtype, nil
	}
	if nFeatures != s.NFeatures {
		return s.DType, scigoErrors.NewShapeError(op, s.NFeatures, nFeatures, 1)
	}
	return s.DType, nil
}

// Accept records a validated batch of rows and marks the state dirty.
func (s *StateManager) Accept(nFeatures, rows int, dtype table.DType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Fitted {
		s.Fitted = true
		s.NFeatures = nFeatures
		s.DType = dtype
	}
	s.NSamples += rows
	s.NeedsFinalize = true
}

// MarkFinalized clears the dirty flag.
func (s *StateManager) MarkFinalized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NeedsFinalize = false
}

// Reset returns to the empty state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
	s.DType = table.Float64
	s.NeedsFinalize = false
}

// GetDimensions returns the number of features and rows seen.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// GetDType returns the precision fixed by the first batch.
func (s *StateManager) GetDType() table.DType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DType
}

// RequireFitted returns a NotFittedError when no batch has been accepted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return scigoErrors.NewNotFittedError(modelName, method)
	}
	return nil
}

// ModelState is the serializable form of StateManager.
type ModelState struct {
	Fitted        bool   `json:"fitted"`
	NFeatures     int    `json:"n_features_in,omitempty"`
	NSamples      int    `json:"n_samples_seen,omitempty"`
	DType         string `json:"dtype"`
	NeedsFinalize bool   `json:"needs_finalize"`
}

// GetState returns the current state.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ModelState{
		Fitted:        s.Fitted,
		NFeatures:     s.NFeatures,
		NSamples:      s.NSamples,
		DType:         s.DType.String(),
		NeedsFinalize: s.NeedsFinalize,
	}
}

// SetState restores a previously captured state.
func (s *StateManager) SetState(state ModelState) error {
	dtype, err := table.ParseDType(state.DType)
	if err != nil {
		return scigoErrors.Wrap(err, "restoring model state")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = state.Fitted
	s.NFeatures = state.NFeatures
	s.NSamples = state.NSamples
	s.DType = dtype
	s.NeedsFinalize = state.NeedsFinalize
	return nil
}
