// Package file loads tool settings from a TOML file. Settings cover
// the data directory, harvest windows and caps, synthesis batching,
// and assembly split parameters; secrets come from the environment,
// never from the file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default settings values.
const (
	DefaultMinDate            = "2022-01-01"
	DefaultPerUnitCap         = 500
	DefaultBatchSize          = 10
	DefaultCheckpointInterval = 50
	DefaultTrainRatio         = 0.9
	DefaultSeed               = 42
	DefaultMaxTokens          = 4096
	DefaultTemperature        = 1.0
)

// Settings is the full configuration tree.
type Settings struct {
	// DataDir is where corpora, checkpoints, partitions, and the run
	// ledger live. Defaults to ~/.harvest.
	DataDir string `toml:"data_dir"`

	// PlanPath points at the harvest plan YAML. Empty uses the
	// built-in plan.
	PlanPath string `toml:"plan_path"`

	Harvest   HarvestSettings   `toml:"harvest"`
	Synthesis SynthesisSettings `toml:"synthesis"`
	Assembly  AssemblySettings  `toml:"assembly"`
}

// HarvestSettings configures the collectors.
type HarvestSettings struct {
	// MinDate is the creation-date floor, "YYYY-MM-DD".
	MinDate string `toml:"min_date"`

	// PerUnitCap bounds candidates per repo or tag.
	PerUnitCap int `toml:"per_unit_cap"`

	// Site is the Stack Exchange site. Defaults to stackoverflow.
	Site string `toml:"site"`
}

// SynthesisSettings configures the batch generator.
type SynthesisSettings struct {
	// Provider selects the completion backend, "anthropic" or
	// "ollama". Defaults to anthropic.
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's endpoint, mainly for a remote
	// Ollama host.
	BaseURL string `toml:"base_url"`

	// Model overrides the LLM adapter's default model.
	Model string `toml:"model"`

	// BatchSize is how many responses one prompt requests.
	BatchSize int `toml:"batch_size"`

	// CheckpointInterval is how many accepted examples pass between
	// checkpoint saves.
	CheckpointInterval int `toml:"checkpoint_interval"`

	// MaxTokens bounds each completion.
	MaxTokens int `toml:"max_tokens"`

	// Temperature for generation.
	Temperature float64 `toml:"temperature"`
}

// AssemblySettings configures the train/eval split.
type AssemblySettings struct {
	// TrainRatio is the train share of the shuffled corpus.
	TrainRatio float64 `toml:"train_ratio"`

	// Seed drives the deterministic shuffle.
	Seed int64 `toml:"seed"`
}

// Load reads settings from path, filling defaults for anything unset.
// A missing file is not an error; it yields pure defaults.
func Load(path string) (Settings, error) {
	s := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings: %w", err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing settings: %w", err)
	}
	s.fillDefaults()

	if _, err := s.MinDate(); err != nil {
		return s, err
	}
	if s.Assembly.TrainRatio <= 0 || s.Assembly.TrainRatio > 1 {
		return s, fmt.Errorf("settings: train_ratio must be in (0, 1], got %v", s.Assembly.TrainRatio)
	}
	return s, nil
}

// DefaultPath returns ~/.harvest/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".harvest", "config.toml"), nil
}

func defaults() Settings {
	s := Settings{}
	s.fillDefaults()
	return s
}

func (s *Settings) fillDefaults() {
	if s.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			s.DataDir = filepath.Join(home, ".harvest")
		}
	}
	if s.Harvest.MinDate == "" {
		s.Harvest.MinDate = DefaultMinDate
	}
	if s.Harvest.PerUnitCap == 0 {
		s.Harvest.PerUnitCap = DefaultPerUnitCap
	}
	if s.Harvest.Site == "" {
		s.Harvest.Site = "stackoverflow"
	}
	if s.Synthesis.Provider == "" {
		s.Synthesis.Provider = "anthropic"
	}
	if s.Synthesis.BatchSize == 0 {
		s.Synthesis.BatchSize = DefaultBatchSize
	}
	if s.Synthesis.CheckpointInterval == 0 {
		s.Synthesis.CheckpointInterval = DefaultCheckpointInterval
	}
	if s.Synthesis.MaxTokens == 0 {
		s.Synthesis.MaxTokens = DefaultMaxTokens
	}
	if s.Synthesis.Temperature == 0 {
		s.Synthesis.Temperature = DefaultTemperature
	}
	if s.Assembly.TrainRatio == 0 {
		s.Assembly.TrainRatio = DefaultTrainRatio
	}
	if s.Assembly.Seed == 0 {
		s.Assembly.Seed = DefaultSeed
	}
}

// MinDate parses the harvest date floor.
func (s Settings) MinDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", s.Harvest.MinDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("settings: bad min_date %q: %w", s.Harvest.MinDate, err)
	}
	return t.UTC(), nil
}

// Secrets read from the environment.
const (
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvStackAppKey     = "STACKAPPS_KEY"
)

// GitHubToken returns the GitHub token from the environment.
func GitHubToken() string { return os.Getenv(EnvGitHubToken) }

// AnthropicAPIKey returns the Anthropic key from the environment.
func AnthropicAPIKey() string { return os.Getenv(EnvAnthropicAPIKey) }

// StackAppKey returns the optional Stack Apps key from the environment.
func StackAppKey() string { return os.Getenv(EnvStackAppKey) }
