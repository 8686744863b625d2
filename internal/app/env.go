package app

import (
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackwatch/internal/category"
	"github.com/blackwell-systems/feedbackwatch/internal/config"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/ingest"
	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/logging"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
	"github.com/blackwell-systems/feedbackwatch/internal/sentiment"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

// env bundles what a command needs once configuration is loaded.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *store.DB
}

// loadEnv reads configuration, applies output and logging settings and,
// when withDB is set, opens the feedback store.
func loadEnv(withDB bool) (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	output.ConfigureColor(flagNoColor || !cfg.Output.Color)

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log}
	if withDB {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		e.db = db
		log.Debug("store opened", zap.String("path", cfg.DBPath))
	}
	return e, nil
}

func (e *env) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	_ = e.log.Sync()
}

func (e *env) scorer() (*sentiment.Scorer, error) {
	backend, err := sentiment.NewBackend(e.cfg.Sentiment.Backend)
	if err != nil {
		return nil, err
	}
	return sentiment.NewScorer(backend,
		sentiment.WithNeutralBand(e.cfg.Sentiment.NeutralBand),
		sentiment.WithLogger(e.log),
	), nil
}

func (e *env) pipeline(workers int) (*ingest.Pipeline, error) {
	scorer, err := e.scorer()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = e.cfg.Ingest.Workers
	}
	return ingest.NewPipeline(scorer, category.NewMapper(), e.db,
		ingest.WithWorkers(workers),
		ingest.WithLogger(e.log),
	), nil
}

func (e *env) generator() (*insight.Generator, error) {
	opts := []insight.Option{
		insight.WithLoopWeeks(e.cfg.Insights.LoopWeeks),
		insight.WithMomentumWeeks(e.cfg.Insights.MomentumWeeks),
	}
	if len(e.cfg.Insights.Owners) > 0 {
		owners, err := insight.ParseOwners(e.cfg.Insights.Owners)
		if err != nil {
			return nil, err
		}
		// Configured owners extend the defaults.
		merged := maps.Clone(insight.DefaultOwners)
		maps.Copy(merged, owners)
		opts = append(opts, insight.WithOwners(merged))
	}
	return insight.NewGenerator(opts...), nil
}

func (e *env) service() (*report.Service, error) {
	gen, err := e.generator()
	if err != nil {
		return nil, err
	}
	return report.NewService(e.db, gen,
		report.WithLogger(e.log),
		report.WithPageSize(e.cfg.Store.PageSize),
	), nil
}

// parseWeek resolves a --week flag value; empty means the current week.
func parseWeek(s string) (feedback.Window, error) {
	return feedback.ParseWeek(s, time.Now())
}
