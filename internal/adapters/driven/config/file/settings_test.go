package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultMinDate, s.Harvest.MinDate)
	assert.Equal(t, DefaultPerUnitCap, s.Harvest.PerUnitCap)
	assert.Equal(t, "anthropic", s.Synthesis.Provider)
	assert.Equal(t, DefaultBatchSize, s.Synthesis.BatchSize)
	assert.Equal(t, DefaultCheckpointInterval, s.Synthesis.CheckpointInterval)
	assert.InDelta(t, DefaultTrainRatio, s.Assembly.TrainRatio, 0.0001)
	assert.Equal(t, int64(DefaultSeed), s.Assembly.Seed)
	assert.NotEmpty(t, s.DataDir)
}

func TestLoadOverrides(t *testing.T) {
	path := writeSettings(t, `
data_dir = "/tmp/harvest-test"

[harvest]
min_date = "2023-06-15"
per_unit_cap = 50

[synthesis]
model = "my-model"
batch_size = 5
checkpoint_interval = 25

[assembly]
train_ratio = 0.8
seed = 7
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/harvest-test", s.DataDir)
	assert.Equal(t, 50, s.Harvest.PerUnitCap)
	assert.Equal(t, "my-model", s.Synthesis.Model)
	assert.Equal(t, 5, s.Synthesis.BatchSize)
	assert.Equal(t, 25, s.Synthesis.CheckpointInterval)
	assert.InDelta(t, 0.8, s.Assembly.TrainRatio, 0.0001)
	assert.Equal(t, int64(7), s.Assembly.Seed)

	min, err := s.MinDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), min)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("bad date", func(t *testing.T) {
		_, err := Load(writeSettings(t, "[harvest]\nmin_date = \"15/06/2023\"\n"))
		assert.Error(t, err)
	})

	t.Run("bad ratio", func(t *testing.T) {
		_, err := Load(writeSettings(t, "[assembly]\ntrain_ratio = 1.5\n"))
		assert.Error(t, err)
	})

	t.Run("not toml", func(t *testing.T) {
		_, err := Load(writeSettings(t, "{json: true}"))
		assert.Error(t, err)
	})
}

func TestSecretsFromEnv(t *testing.T) {
	t.Setenv(EnvGitHubToken, "gh-token")
	t.Setenv(EnvAnthropicAPIKey, "api-key")

	assert.Equal(t, "gh-token", GitHubToken())
	assert.Equal(t, "api-key", AnthropicAPIKey())
}
