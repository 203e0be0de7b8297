package models

import "fmt"

// ScrapeState is the lifecycle stage of the single scrape run.
type ScrapeState int

const (
	StateIdle ScrapeState = iota
	StateInProgress
	StateComplete
	StateFailed
)

func (s ScrapeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s ScrapeState) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Status is what a poller sees.
type Status struct {
	State    ScrapeState `json:"-"`
	RowCount int         `json:"row_count"`
}

// Label returns the machine-readable state name.
func (st Status) Label() string { return st.State.String() }

// Message returns the progress line shown to dashboard users.
func (st Status) Message() string {
	switch st.State {
	case StateInProgress:
		return fmt.Sprintf("Scraping in progress... %d entries collected so far.", st.RowCount)
	case StateComplete:
		return "Scraping complete!"
	case StateFailed:
		return "Scraping failed. Check the logs for details."
	default:
		return "Click 'Start Scraping' to begin data collection."
	}
}
