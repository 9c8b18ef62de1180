package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/scigo-accel/backend"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

const sample = `
[log]
level = "debug"

[backend]
name = "cpu"

[hyperparameters.linear_regression.train]
cpu_macro_block = 8192

[hyperparameters.covariance.compute]
cpu_macro_block = 512
`

func restoreGlobals(t *testing.T) {
	t.Cleanup(func() {
		backend.ResetHyperparameters()
		_ = backend.SetDefault("cpu")
		log.SetLevel(log.LevelInfo)
	})
}

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, FormatJSON, cfg.Log.Format, "unset fields keep defaults")
	assert.Equal(t, "cpu", cfg.Backend.Name)
	assert.Equal(t, 8192, cfg.Hyperparameters["linear_regression"]["train"].CPUMacroBlock)
	assert.Equal(t, 512, cfg.Hyperparameters["covariance"]["compute"].CPUMacroBlock)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "[log]\nlevl = \"debug\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"bad format", "[log]\nformat = \"xml\"\n"},
		{"unknown backend", "[backend]\nname = \"tpu\"\n"},
		{"negative block", "[hyperparameters.linear_regression.train]\ncpu_macro_block = -1\n"},
		{"syntax", "[log\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := Decode(strings.NewReader("[log]\nlevl = \"debug\"\n"))
	var ce *scigoErrors.ConfigurationError
	require.True(t, scigoErrors.As(err, &ce))
	assert.Equal(t, "log.levl", ce.Value)
}

func TestApply(t *testing.T) {
	restoreGlobals(t)

	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Apply())

	assert.Equal(t, 8192, backend.GetHyperparameters("linear_regression", "train").CPUMacroBlock)
	assert.Equal(t, 512, backend.GetHyperparameters("covariance", "compute").CPUMacroBlock)
	assert.True(t, backend.GetHyperparameters("basic_statistics", "compute").IsDefault())
	assert.Equal(t, "cpu", backend.Default().Name())
	assert.True(t, log.GetLogger().Enabled(context.Background(), log.LevelDebug))
}

func TestApply_UnknownTarget(t *testing.T) {
	restoreGlobals(t)

	cfg := Default()
	cfg.Hyperparameters = map[string]map[string]backend.Hyperparameters{
		"kmeans": {"train": {CPUMacroBlock: 10}},
	}
	assert.Error(t, cfg.Apply())
}

func TestLoad(t *testing.T) {
	restoreGlobals(t)

	path := filepath.Join(t.TempDir(), "scigo.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := LoadAndApply(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	cfg, err = LoadAndApply("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
