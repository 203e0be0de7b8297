package scraper

import (
	"context"
	"time"

	"github.com/aluiziolira/go-scrape-channels/logging"
	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/rs/zerolog"
)

// DefaultPollInterval matches the dashboard's status refresh.
const DefaultPollInterval = 2 * time.Second

type statusSource interface {
	Status() models.Status
	Done() <-chan struct{}
}

// Reporter polls a controller on a fixed interval and logs its progress
// message whenever the row count moves.
type Reporter struct {
	src      statusSource
	interval time.Duration
	log      zerolog.Logger
}

// NewReporter returns a reporter for ctrl. A non-positive interval selects
// DefaultPollInterval.
func NewReporter(ctrl *Controller, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Reporter{src: ctrl, interval: interval, log: logging.NewLogger("progress")}
}

// Run blocks until the run ends or ctx is done. The final status is always
// logged when the run ends.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-ticker.C:
			st := r.src.Status()
			if st.State != models.StateInProgress || st.RowCount == last {
				continue
			}
			last = st.RowCount
			r.emit(st)
		case <-r.src.Done():
			r.emit(r.src.Status())
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reporter) emit(st models.Status) {
	r.log.Info().
		Str("state", st.Label()).
		Int("rows", st.RowCount).
		Msg(st.Message())
}
