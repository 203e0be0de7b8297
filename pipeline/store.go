package pipeline

import (
	"sync"

	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/aluiziolira/go-scrape-channels/parser"
)

// Store is the single source of truth for the accumulated table. Every
// Replace publishes a fully normalized snapshot, so readers never see a
// partially rebuilt table.
type Store struct {
	mu      sync.RWMutex
	snap    models.Snapshot
	version uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{snap: models.Snapshot{Columns: []string{}, Rows: [][]models.Value{}}}
}

// Replace rebuilds the table from records. The caller passes the full
// accumulation to date; nothing is merged with the previous table.
func (s *Store) Replace(records []models.ChannelRecord) {
	// Normalization runs outside the lock; only the publish is exclusive.
	next := parser.Normalize(records)

	s.mu.Lock()
	s.snap = next
	s.version++
	s.mu.Unlock()
}

// Read returns a point-in-time copy that may be serialized without locking.
func (s *Store) Read() models.Snapshot {
	snap, _ := s.ReadVersioned()
	return snap
}

// ReadVersioned returns a snapshot copy together with the version it was
// published as.
func (s *Store) ReadVersioned() (models.Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := make([]string, len(s.snap.Columns))
	copy(cols, s.snap.Columns)
	rows := make([][]models.Value, len(s.snap.Rows))
	copy(rows, s.snap.Rows)
	return models.Snapshot{Columns: cols, Rows: rows}, s.version
}

// Count returns the number of rows without copying.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.Rows)
}

// Version increments on every Replace.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
