package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

func TestTestLogger_Levels(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.Info("partial fit", OperationKey, OperationPartialFit, SamplesKey, 100)
	logger.Warn("slow batch")
	logger.Error("finalize failed", fmt.Errorf("singular"), ErrorCodeKey, ErrorSingularMatrix)

	assert.NotContains(t, buffer.String(), "hidden")
	assert.True(t, logger.ContainsMessage("partial fit"))
	assert.True(t, logger.ContainsField(OperationKey, OperationPartialFit))
	assert.True(t, logger.ContainsField(SamplesKey, 100.0))
	assert.True(t, logger.ContainsField("error", "singular"))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "WARN", entries[1]["level"])

	logger.Clear()
	assert.Empty(t, buffer.String())
}

func TestTestLogger_With(t *testing.T) {
	base, _ := NewTestLogger(LevelDebug)
	child := base.With(ModelNameKey, "IncrementalRidge")
	child.Info("finalized", TargetsKey, 2)

	assert.True(t, base.ContainsField(ModelNameKey, "IncrementalRidge"))
	assert.True(t, base.ContainsField(TargetsKey, 2.0))
	assert.True(t, child.Enabled(context.Background(), LevelDebug))
}

func TestTestLoggerProvider(t *testing.T) {
	p, buffer := NewTestLoggerProvider(LevelDebug)
	p.GetLoggerWithName("covariance").Info("hello")
	assert.Contains(t, buffer.String(), `"ml.component":"covariance"`)

	p.SetLevel(LevelError)
	p.GetLogger().Info("dropped")
	assert.NotContains(t, buffer.String(), "dropped")
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)
	logger := p.GetLoggerWithName("linear").With(ModelNameKey, "IncrementalLinearRegression")

	logger.Info("partial fit", SamplesKey, 10, FeaturesKey, 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "partial fit", entry["message"])
	assert.Equal(t, "linear", entry[ComponentKey])
	assert.Equal(t, "IncrementalLinearRegression", entry[ModelNameKey])
	assert.Equal(t, 10.0, entry[SamplesKey])
}

func TestZerologLogger_ErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)

	p.GetLogger().Error("backend failed", errors.New("boom"), OperationKey, OperationFinalizeFit)

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, StacktraceKey)
	assert.Contains(t, out, OperationFinalizeFit)
}

func TestZerologProvider_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)
	p.SetLevel(LevelWarn)

	logger := p.GetLogger()
	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestZerologProvider_Warning(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)

	p.warn(scigoErrors.NewDataConversionWarning("int64", "float64", "integer input"))

	out := buf.String()
	assert.True(t, strings.Contains(out, `"type":"DataConversionWarning"`))
	assert.Contains(t, out, `"from_type":"int64"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlobalProvider(t *testing.T) {
	p, buffer := NewTestLoggerProvider(LevelDebug)
	SetProvider(p)
	defer SetProvider(nil)

	GetLoggerWithName("basicstats").Info("computed")
	assert.Contains(t, buffer.String(), "basicstats")
}
