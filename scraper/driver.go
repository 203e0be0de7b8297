// Package scraper walks the upstream channel table page by page over a
// cookie-carrying session and owns the single run of the process.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-channels/config"
	"github.com/aluiziolira/go-scrape-channels/logging"
	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/aluiziolira/go-scrape-channels/pipeline"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Driver walks every page of the upstream table in offset order and
// publishes the accumulated records to the store after each page.
type Driver struct {
	cfg       *config.Config
	store     *pipeline.Store
	exporter  *pipeline.Exporter
	limiter   *RateLimiter
	metrics   *Metrics
	transport http.RoundTripper
	log       zerolog.Logger
}

// Option customises a Driver.
type Option func(*Driver)

// WithTransport routes all session traffic through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(d *Driver) {
		d.transport = rt
	}
}

// WithRateLimiter replaces the limiter built from the configured delays.
func WithRateLimiter(l *RateLimiter) Option {
	return func(d *Driver) {
		d.limiter = l
	}
}

// WithMetrics records into m instead of a private registry.
func WithMetrics(m *Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// NewDriver wires a driver for cfg.
func NewDriver(cfg *config.Config, store *pipeline.Store, exporter *pipeline.Exporter, opts ...Option) *Driver {
	d := &Driver{
		cfg:      cfg,
		store:    store,
		exporter: exporter,
		limiter:  NewRateLimiter(cfg.Delay, cfg.RandomDelay),
		log:      logging.NewLogger("driver"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = NewMetrics()
	}
	return d
}

// Metrics exposes the collectors the driver records into.
func (d *Driver) Metrics() *Metrics {
	return d.metrics
}

// Run fetches every page sequentially. Failed pages are logged and skipped;
// they never end the run. Run returns an error only when the session cannot
// be built or ctx is cancelled, in which case the partial result is still
// returned.
func (d *Driver) Run(ctx context.Context) (*models.RunResult, error) {
	result := &models.RunResult{
		RunID:        uuid.NewString(),
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}
	log := d.log.With().Str("run_id", result.RunID).Logger()

	session, err := NewSession(d.cfg, d.transport, d.metrics)
	if err != nil {
		result.EndTime = time.Now()
		return result, fmt.Errorf("create session: %w", err)
	}

	log.Info().Str("url", d.cfg.SiteURL).Msg("visiting main page to get cookies")
	result.RequestCount++
	if err := session.Bootstrap(); err != nil {
		result.ErrorsByType["bootstrap"]++
		log.Warn().Err(err).Msg("cookie bootstrap failed, continuing without cookies")
	}

	requests := models.PageRequests(d.cfg.TotalEntries, d.cfg.PageSize)
	accumulated := make([]models.ChannelRecord, 0, d.cfg.TotalEntries)

	for _, req := range requests {
		if err := d.limiter.Wait(ctx); err != nil {
			result.EndTime = time.Now()
			result.TotalCount = len(accumulated)
			log.Warn().Err(err).Int("offset", req.Offset).Msg("run cancelled")
			return result, err
		}

		log.Debug().Int("offset", req.Offset).Int("limit", req.Limit).Msg("fetching page")
		result.RequestCount++
		records, err := session.FetchPage(req)
		if err != nil {
			category := ClassifyError(err)
			result.ErrorCount++
			result.ErrorsByType[category]++
			result.FailedOffsets = append(result.FailedOffsets, req.Offset)
			d.metrics.PageFailed(category)
			log.Error().
				Err(err).
				Int("offset", req.Offset).
				Str("category", category).
				Msg("page fetch failed, skipping")
			continue
		}

		result.PageCount++
		d.metrics.AddRecords(len(records))
		accumulated = append(accumulated, records...)
		d.store.Replace(accumulated)
		d.metrics.SetRows(d.store.Count())

		log.Info().
			Int("offset", req.Offset).
			Int("retrieved", len(records)).
			Int("total", len(accumulated)).
			Msg("page stored")
	}

	result.TotalCount = len(accumulated)
	if d.exporter != nil {
		res, err := d.exporter.WriteDefault()
		if err != nil {
			log.Error().Err(err).Msg("end-of-run export failed")
		} else {
			result.OutputFile = res.Path
		}
	}
	result.EndTime = time.Now()

	log.Info().
		Int("total", result.TotalCount).
		Int("pages", result.PageCount).
		Ints("failed_offsets", result.FailedOffsets).
		Dur("duration", result.EndTime.Sub(result.StartTime)).
		Msg("scrape finished")
	return result, nil
}
