package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level feedbackwatch configuration.
type Config struct {
	DBPath    string    `mapstructure:"db_path"`
	Sentiment Sentiment `mapstructure:"sentiment"`
	Ingest    Ingest    `mapstructure:"ingest"`
	Store     Store     `mapstructure:"store"`
	Insights  Insights  `mapstructure:"insights"`
	Log       Log       `mapstructure:"log"`
	Output    Output    `mapstructure:"output"`
	Watch     Watch     `mapstructure:"watch"`
}

// Sentiment selects the scoring backend.
type Sentiment struct {
	Backend     string  `mapstructure:"backend"`
	NeutralBand float64 `mapstructure:"neutral_band"`
}

// Ingest controls CSV ingestion.
type Ingest struct {
	Workers int `mapstructure:"workers"`
}

// Store controls database access.
type Store struct {
	PageSize int `mapstructure:"page_size"`
}

// Insights controls the insight reductions. Owners maps category names to
// the team that receives their action items.
type Insights struct {
	LoopWeeks     int               `mapstructure:"loop_weeks"`
	MomentumWeeks int               `mapstructure:"momentum_weeks"`
	TrendWeeks    int               `mapstructure:"trend_weeks"`
	Owners        map[string]string `mapstructure:"owners"`
}

// Log defines logger settings.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Watch defines the alert loop settings.
type Watch struct {
	Interval          time.Duration `mapstructure:"interval"`
	NegativeThreshold float64       `mapstructure:"negative_threshold"`
	HeatDrop          float64       `mapstructure:"heat_drop"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. FEEDBACKWATCH_* environment
// variables override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("sentiment.backend", DefaultSentiment.Backend)
	v.SetDefault("sentiment.neutral_band", DefaultSentiment.NeutralBand)
	v.SetDefault("ingest.workers", DefaultIngest.Workers)
	v.SetDefault("store.page_size", DefaultStore.PageSize)
	v.SetDefault("insights.loop_weeks", DefaultInsights.LoopWeeks)
	v.SetDefault("insights.momentum_weeks", DefaultInsights.MomentumWeeks)
	v.SetDefault("insights.trend_weeks", DefaultInsights.TrendWeeks)
	v.SetDefault("insights.owners", map[string]string{})
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("log.format", DefaultLog.Format)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("watch.interval", DefaultWatch.Interval)
	v.SetDefault("watch.negative_threshold", DefaultWatch.NegativeThreshold)
	v.SetDefault("watch.heat_drop", DefaultWatch.HeatDrop)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// A missing config file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.DBPath = expandPath(cfg.DBPath)

	return &cfg, nil
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
