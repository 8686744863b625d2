// Package config provides configuration loading and defaults for feedbackwatch.
package config

import (
	"time"

	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
	"github.com/blackwell-systems/feedbackwatch/internal/sentiment"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

// DefaultConfigDir is the default location for feedbackwatch configuration.
const DefaultConfigDir = "~/.config/feedbackwatch"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "feedbackwatch.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. FEEDBACKWATCH_DB_PATH.
const EnvPrefix = "FEEDBACKWATCH"

// DefaultSentiment holds the default scorer settings.
var DefaultSentiment = Sentiment{
	Backend:     "vader",
	NeutralBand: sentiment.DefaultNeutralBand,
}

// DefaultIngest holds the default ingestion settings. Zero workers means
// one per CPU.
var DefaultIngest = Ingest{
	Workers: 0,
}

// DefaultStore holds the default store settings.
var DefaultStore = Store{
	PageSize: store.DefaultPageSize,
}

// DefaultInsights holds the default insight lookbacks.
var DefaultInsights = Insights{
	LoopWeeks:     insight.DefaultLoopWeeks,
	MomentumWeeks: insight.DefaultMomentumWeeks,
	TrendWeeks:    report.DefaultTrendWeeks,
}

// DefaultLog holds the default logging settings.
var DefaultLog = Log{
	Level:  "warn",
	Format: "console",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultWatch holds the default watch settings.
var DefaultWatch = Watch{
	Interval:          5 * time.Minute,
	NegativeThreshold: 40,
	HeatDrop:          10,
}
