package cmd

import (
	"fmt"
	"log"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nakarin/jobmatch/internal/match"
	"github.com/nakarin/jobmatch/internal/rank"
)

const (
	app = "jobmatch"
)

type Config struct {
	Data      *DataConfig      `mapstructure:"data"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Matching  *MatchingConfig  `mapstructure:"matching"`
	Training  *rank.Config     `mapstructure:"training"`
	ModelFile string           `mapstructure:"model-file"`
	Cache     *CacheConfig     `mapstructure:"cache"`
}

// DataConfig points at the three tabular exports the core consumes.
type DataConfig struct {
	Jobs    string `mapstructure:"jobs"`
	Workers string `mapstructure:"workers"`
	History string `mapstructure:"history"`
}

type EmbeddingConfig struct {
	Provider     string        `mapstructure:"provider"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	JobFields    []string      `mapstructure:"job-fields"`
	WorkerFields []string      `mapstructure:"worker-fields"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type MatchingConfig struct {
	RetrieveK           int                `mapstructure:"retrieve-k"`
	FinalN              int                `mapstructure:"final-n"`
	SimilarityThreshold float64            `mapstructure:"similarity-threshold"`
	TypeFallback        *bool              `mapstructure:"type-fallback"`
	Weights             map[string]float64 `mapstructure:"weights"`
}

// CacheConfig enables the Postgres-backed embedding cache when DSN is set.
type CacheConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Options converts the config section into engine options, falling back
// to the serving defaults for anything unset.
func (m *MatchingConfig) Options() match.Options {
	opts := match.DefaultOptions()
	if m == nil {
		return opts
	}
	if m.RetrieveK > 0 {
		opts.RetrieveK = m.RetrieveK
	}
	if m.FinalN > 0 {
		opts.FinalN = m.FinalN
	}
	if m.SimilarityThreshold > 0 {
		opts.SimilarityThreshold = m.SimilarityThreshold
	}
	if m.TypeFallback != nil {
		opts.TypeFallback = *m.TypeFallback
	}
	return opts
}

// DecodeWeights overlays the configured weight table onto the defaults.
// A partial table must still produce a valid split: unset weights keep
// their default values, so the error says so when the sum comes out wrong.
func (m *MatchingConfig) DecodeWeights() (match.Weights, error) {
	weights := match.DefaultWeights()
	if m == nil || len(m.Weights) == 0 {
		return weights, nil
	}
	if err := mapstructure.Decode(m.Weights, &weights); err != nil {
		return weights, fmt.Errorf("decoding matching weights: %w", err)
	}
	if err := weights.Validate(); err != nil {
		return weights, fmt.Errorf("matching.weights: %w (weights absent from the table keep their defaults %+v)", err, match.DefaultWeights())
	}
	return weights, nil
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch matches labor-marketplace job postings with worker profiles and trains the ranking model behind it",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("embedding.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only match and train consume the config file.
	if matchCmd.CalledAs() == "" && trainCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
