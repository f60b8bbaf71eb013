// Package batch loads evaluation records from files and scores them
// independently on a bounded worker pool.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/shs/internal/discovery"
	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/metrics"
	"github.com/dotcommander/shs/internal/shs"
)

// DefaultConcurrency is used when a Runner is created with a limit below 1.
const DefaultConcurrency = 4

// Outcome is the result of scoring one Item. Exactly one of Result and Err
// is set.
type Outcome struct {
	Item   Item
	Result *shs.Result
	Err    error
}

// OK reports whether the item was scored.
func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil }

// FileError records an input file that could not be read or parsed.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e FileError) Unwrap() error { return e.Err }

// Summary is everything a batch run produced.
type Summary struct {
	RunID      string
	Language   locale.Language
	StartTime  time.Time
	Duration   time.Duration
	Outcomes   []Outcome
	FileErrors []FileError

	Total     int
	Succeeded int
	Failed    int
}

// Results returns the successful results in input order.
func (s *Summary) Results() []shs.Result {
	out := make([]shs.Result, 0, s.Succeeded)
	for _, o := range s.Outcomes {
		if o.OK() {
			out = append(out, *o.Result)
		}
	}
	return out
}

// HasFailures reports whether any record or file failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0 || len(s.FileErrors) > 0
}

// Runner scores items concurrently.
type Runner struct {
	lang        locale.Language
	concurrency int
	logger      *zap.Logger
	metrics     *metrics.Recorder
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records every evaluation on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a Runner that labels results in lang and scores at
// most concurrency items at a time.
func NewRunner(lang locale.Language, concurrency int, opts ...Option) *Runner {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	r := &Runner{
		lang:        lang,
		concurrency: concurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scores every item. A failing item never affects the others, and the
// outcomes keep the order of items. Run only returns an error when ctx is
// cancelled; the outcomes gathered so far are still returned.
func (r *Runner) Run(ctx context.Context, items []Item) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		Language:  r.lang,
		StartTime: time.Now(),
		Outcomes:  make([]Outcome, len(items)),
		Total:     len(items),
	}
	log := r.logger.With(zap.String("run_id", summary.RunID))
	log.Info("batch started", zap.Int("items", len(items)), zap.Int("concurrency", r.concurrency))

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)

	var cancelled error
	for i := range items {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		g.Go(func() error {
			summary.Outcomes[i] = r.score(items[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range summary.Outcomes {
		switch {
		case o.OK():
			summary.Succeeded++
		case o.Err != nil:
			summary.Failed++
			log.Debug("record failed",
				zap.String("source", o.Item.Source),
				zap.Int("index", o.Item.Index),
				zap.Error(o.Err))
		default:
			// never scheduled
			summary.Outcomes[i] = Outcome{Item: items[i], Err: cancelled}
			summary.Failed++
		}
	}

	summary.Duration = time.Since(summary.StartTime)
	r.metrics.ObserveRun(summary.Duration)

	log.Info("batch finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration))

	if cancelled != nil {
		return summary, fmt.Errorf("batch cancelled: %w", cancelled)
	}
	return summary, nil
}

func (r *Runner) score(it Item) Outcome {
	if it.Err != nil {
		r.metrics.ObserveEvaluation(shs.Result{}, it.Err)
		return Outcome{Item: it, Err: it.Err}
	}
	res, err := shs.CalculateMap(it.Responses, r.lang)
	r.metrics.ObserveEvaluation(res, err)
	if err != nil {
		return Outcome{Item: it, Err: err}
	}
	return Outcome{Item: it, Result: &res}
}

// LoadAll reads files in order. Files that fail are recorded as FileErrors
// and skipped; the remaining items are returned in file order.
func LoadAll(loader *Loader, files []discovery.File, logger *zap.Logger) ([]Item, []FileError) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		items    []Item
		fileErrs []FileError
	)
	for _, f := range files {
		loaded, err := loader.LoadFile(f)
		if err != nil {
			logger.Warn("skipping input file", zap.String("path", f.RelPath), zap.Error(err))
			fileErrs = append(fileErrs, FileError{Path: f.RelPath, Err: err})
			continue
		}
		logger.Debug("loaded input file", zap.String("path", f.RelPath), zap.Int("records", len(loaded)))
		items = append(items, loaded...)
	}
	return items, fileErrs
}
