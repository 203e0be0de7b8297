package scraper

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type scriptedSource struct {
	mu     sync.Mutex
	status models.Status
	done   chan struct{}
}

func (s *scriptedSource) Status() models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *scriptedSource) Done() <-chan struct{} { return s.done }

func (s *scriptedSource) set(st models.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReporterLogsProgressAndFinalStatus(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &scriptedSource{
		status: models.Status{State: models.StateInProgress, RowCount: 100},
		done:   make(chan struct{}),
	}
	out := &syncBuffer{}
	r := &Reporter{src: src, interval: 5 * time.Millisecond, log: zerolog.New(out)}

	finished := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(finished)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "100 entries collected so far")
	}, time.Second, 5*time.Millisecond)

	src.set(models.Status{State: models.StateComplete, RowCount: 250})
	close(src.done)
	<-finished

	logs := out.String()
	require.Equal(t, 1, strings.Count(logs, "100 entries collected so far"), "unchanged counts are not repeated")
	require.Contains(t, logs, "Scraping complete!")
	require.Contains(t, logs, `"rows":250`)
}

func TestReporterStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &scriptedSource{done: make(chan struct{})}
	r := &Reporter{src: src, interval: time.Hour, log: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(finished)
	}()
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("reporter did not stop")
	}
}

func TestNewReporterDefaultsInterval(t *testing.T) {
	r := NewReporter(nil, 0)
	require.Equal(t, DefaultPollInterval, r.interval)
}
