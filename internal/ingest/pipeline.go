package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/feedbackwatch/internal/category"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/logging"
	"github.com/blackwell-systems/feedbackwatch/internal/sentiment"
)

// Store is where annotated records end up. *store.DB satisfies it.
type Store interface {
	InsertAnnotated(ctx context.Context, a feedback.Annotated) error
	InsertIngestRun(ctx context.Context, source, backend string, processed, failed int) (int64, error)
}

// Summary reports the outcome of one ingestion batch.
type Summary struct {
	Source    string     `json:"source"`
	Backend   string     `json:"backend"`
	Processed int        `json:"processed"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors"`
}

// Pipeline annotates validated rows and stores them.
type Pipeline struct {
	scorer  *sentiment.Scorer
	mapper  *category.Mapper
	store   Store
	workers int
	log     *zap.Logger
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds how many rows are annotated concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides the time source used for created_at and the default
// week.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// NewPipeline creates a Pipeline. A nil mapper uses the default keywords.
func NewPipeline(scorer *sentiment.Scorer, mapper *category.Mapper, st Store, opts ...Option) *Pipeline {
	if mapper == nil {
		mapper = category.NewMapper()
	}
	p := &Pipeline{
		scorer:  scorer,
		mapper:  mapper,
		store:   st,
		workers: runtime.GOMAXPROCS(0),
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Annotate scores and categorizes a single record. The record keeps its ID
// when it already has one.
func (p *Pipeline) Annotate(rec feedback.Record) feedback.Annotated {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = p.now().UTC()
	}
	return feedback.Annotated{
		Record:     rec,
		Sentiment:  p.scorer.Annotate(rec.Text),
		Categories: p.mapper.Map(rec.Text, rec.Tags),
	}
}

// IngestFile reads and ingests the CSV file at path.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return p.Ingest(ctx, filepath.Base(path), f)
}

// Ingest reads a CSV export from r, annotates every valid row and stores
// it. Invalid rows are counted as failed and reported in the summary. The
// batch is recorded as an ingestion run.
func (p *Pipeline) Ingest(ctx context.Context, source string, r io.Reader) (Summary, error) {
	rows, rowErrs, err := ReadCSV(r, p.now())
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Source:  source,
		Backend: p.scorer.Backend(),
		Errors:  append([]RowError{}, rowErrs...),
	}

	annotated, err := p.annotateAll(ctx, rows)
	if err != nil {
		return sum, err
	}

	// Rows are written one at a time in file order; SQLite has a single
	// writer anyway.
	for i, a := range annotated {
		if err := p.store.InsertAnnotated(ctx, a); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			p.log.Warn("storing record failed",
				zap.Int("row", rows[i].Row), logging.Trainee(a.TraineeID), zap.Error(err))
			sum.Errors = append(sum.Errors, RowError{Row: rows[i].Row, Reason: fmt.Sprintf("storing record: %v", err)})
			continue
		}
		sum.Processed++
	}
	sum.Failed = len(sum.Errors)

	if _, err := p.store.InsertIngestRun(ctx, source, sum.Backend, sum.Processed, sum.Failed); err != nil {
		return sum, fmt.Errorf("recording ingest run: %w", err)
	}

	p.log.Info("ingested feedback",
		zap.String("source", source),
		zap.String("backend", sum.Backend),
		zap.Int("processed", sum.Processed),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

// annotateAll annotates rows concurrently, preserving their order.
func (p *Pipeline) annotateAll(ctx context.Context, rows []Row) ([]feedback.Annotated, error) {
	out := make([]feedback.Annotated, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = p.Annotate(row.Record)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
