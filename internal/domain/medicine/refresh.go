package medicine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/medreview/medreview/internal/platform/metrics"
	"github.com/medreview/medreview/internal/platform/openfda"
)

// LabelFetcher loads a label by its openFDA id.
type LabelFetcher interface {
	FindByID(ctx context.Context, id string) (*openfda.Label, error)
}

type RefresherConfig struct {
	// At is the daily run time, HH:MM in local time.
	At     string
	MaxAge time.Duration
	Batch  int
}

type RefreshStats struct {
	Updated int
	Missing int
	Failed  int
}

// Refresher re-reads the openFDA label of medicines whose local copy is
// older than MaxAge and updates their name and description.
type Refresher struct {
	repo      Repository
	labels    LabelFetcher
	cfg       RefresherConfig
	logger    zerolog.Logger
	scheduler *gocron.Scheduler
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

func NewRefresher(repo Repository, labels LabelFetcher, cfg RefresherConfig, logger zerolog.Logger) *Refresher {
	if cfg.At == "" {
		cfg.At = "03:00"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 30 * 24 * time.Hour
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 50
	}
	return &Refresher{
		repo:      repo,
		labels:    labels,
		cfg:       cfg,
		logger:    logger.With().Str("component", "label_refresh").Logger(),
		scheduler: gocron.NewScheduler(time.Local),
		now:       time.Now,
	}
}

// Start schedules the daily run and returns immediately.
func (r *Refresher) Start() error {
	_, err := r.scheduler.Every(1).Days().At(r.cfg.At).Do(func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			r.logger.Error().Err(err).Msg("label refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule label refresh: %w", err)
	}
	r.scheduler.StartAsync()
	r.logger.Info().Str("at", r.cfg.At).Dur("max_age", r.cfg.MaxAge).Msg("label refresh scheduled")
	return nil
}

func (r *Refresher) Stop() {
	r.scheduler.Stop()
}

// RunOnce refreshes one batch of stale medicines. Overlapping runs are
// skipped.
func (r *Refresher) RunOnce(ctx context.Context) (RefreshStats, error) {
	var stats RefreshStats

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Info().Msg("label refresh already running, skipping")
		return stats, nil
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	start := time.Now()
	stale, err := r.repo.ListStale(ctx, r.now().Add(-r.cfg.MaxAge), r.cfg.Batch)
	if err != nil {
		return stats, fmt.Errorf("list stale medicines: %w", err)
	}

	for _, m := range stale {
		if m.FDAID == nil {
			continue
		}
		log := r.logger.With().Str("medicine_id", m.ID.String()).Str("fda_id", *m.FDAID).Logger()

		label, err := r.labels.FindByID(ctx, *m.FDAID)
		switch {
		case errors.Is(err, openfda.ErrNotFound):
			if err := r.repo.Touch(ctx, m.ID); err != nil {
				log.Warn().Err(err).Msg("touch medicine failed")
				stats.Failed++
				metrics.LabelRefreshTotal.WithLabelValues("error").Inc()
				continue
			}
			log.Info().Msg("label no longer published")
			stats.Missing++
			metrics.LabelRefreshTotal.WithLabelValues("missing").Inc()
			continue
		case err != nil:
			log.Warn().Err(err).Msg("fetch label failed")
			stats.Failed++
			metrics.LabelRefreshTotal.WithLabelValues("error").Inc()
			continue
		}

		d := DefaultsFromLabel(label, m.Name)
		if d.Description == nil {
			d.Description = m.Description
		}
		if err := r.repo.UpdateLabel(ctx, m.ID, d.Name, d.Description); err != nil {
			log.Warn().Err(err).Msg("update medicine failed")
			stats.Failed++
			metrics.LabelRefreshTotal.WithLabelValues("error").Inc()
			continue
		}
		stats.Updated++
		metrics.LabelRefreshTotal.WithLabelValues("updated").Inc()
	}

	r.logger.Info().
		Int("updated", stats.Updated).
		Int("missing", stats.Missing).
		Int("failed", stats.Failed).
		Dur("duration", time.Since(start)).
		Msg("label refresh complete")
	return stats, nil
}
