package scraper

import (
	"context"
	"sync"

	"github.com/aluiziolira/go-scrape-channels/logging"
	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/aluiziolira/go-scrape-channels/pipeline"
	"github.com/rs/zerolog"
)

type runner interface {
	Run(ctx context.Context) (*models.RunResult, error)
}

// Controller owns the single scrape run of a process. Start moves it from
// Idle to InProgress exactly once; the run then ends in Complete, or in
// Failed when the session cannot be built or the run is stopped.
type Controller struct {
	store    *pipeline.Store
	exporter *pipeline.Exporter
	runner   runner
	log      zerolog.Logger

	mu     sync.Mutex
	state  models.ScrapeState
	result *models.RunResult
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// NewController wires a controller around a driver.
func NewController(store *pipeline.Store, exporter *pipeline.Exporter, driver *Driver) *Controller {
	return &Controller{
		store:    store,
		exporter: exporter,
		runner:   driver,
		log:      logging.NewLogger("controller"),
		state:    models.StateIdle,
		done:     make(chan struct{}),
	}
}

// Start launches the run. It returns false without side effects unless the
// controller is Idle.
func (c *Controller) Start(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != models.StateIdle {
		c.mu.Unlock()
		return false
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.state = models.StateInProgress
	c.cancel = cancel
	c.mu.Unlock()

	c.log.Info().Msg("scrape started")
	go c.run(runCtx)
	return true
}

func (c *Controller) run(ctx context.Context) {
	result, err := c.runner.Run(ctx)

	c.mu.Lock()
	c.result = result
	c.err = err
	if err != nil {
		c.state = models.StateFailed
	} else {
		c.state = models.StateComplete
	}
	state := c.state
	c.cancel()
	c.mu.Unlock()
	close(c.done)

	ev := c.log.Info()
	if err != nil {
		ev = c.log.Error().Err(err)
	}
	ev.Str("state", state.String()).Int("rows", c.store.Count()).Msg("scrape ended")
}

// Status reports the state and current row count. Safe at any frequency.
func (c *Controller) Status() models.Status {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	return models.Status{State: state, RowCount: c.store.Count()}
}

// Snapshot returns the live table.
func (c *Controller) Snapshot() models.Snapshot {
	return c.store.Read()
}

// SnapshotVersioned returns the live table with its store version.
func (c *Controller) SnapshotVersioned() (models.Snapshot, uint64) {
	return c.store.ReadVersioned()
}

// ExportNow writes a timestamped export when the table has rows and returns
// nil otherwise.
func (c *Controller) ExportNow() (*pipeline.ExportResult, error) {
	return c.exporter.ExportNow()
}

// Stop cancels a run in progress. It is a no-op otherwise.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed once the run has ended. It never closes if Start was not called.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Result returns the run summary and error once the run has ended.
func (c *Controller) Result() (*models.RunResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.err
}
