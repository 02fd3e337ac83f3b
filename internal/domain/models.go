package domain

import (
	"time"
)

// Mapping represents a persisted path to URL mapping
type Mapping struct {
	ID             int64     `json:"id"`
	ShortID        *string   `json:"short_id,omitempty"`
	Path           string    `json:"path"`
	URL            string    `json:"url"`
	OriginURL      string    `json:"origin_url"`
	CreateTime     time.Time `json:"create_time"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// WriteRequest is a single item of a write batch. Both fields are optional.
type WriteRequest struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}

// WriteItem is the wire shape of a single write result
type WriteItem struct {
	Path  string `json:"path"`
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// ResolveResponse is returned by the lookup API
type ResolveResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Outcome tags what a write did with a request
type Outcome int

const (
	// OutcomeRejected means the request failed validation and nothing was written
	OutcomeRejected Outcome = iota
	// OutcomeCreated means a new record was inserted
	OutcomeCreated
	// OutcomeUpdated means an existing record's URL was replaced
	OutcomeUpdated
	// OutcomeReused means an existing short link for the same URL was returned
	OutcomeReused
	// OutcomeFailed means the store rejected or failed the write
	OutcomeFailed
)

// String returns the outcome name, used as a metric label
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeReused:
		return "reused"
	case OutcomeFailed:
		return "failed"
	default:
		return "rejected"
	}
}

// WriteResult is the typed result of writing one WriteRequest
type WriteResult struct {
	Outcome Outcome
	Path    string
	URL     string
	// Mapping is set for Created, Updated and Reused outcomes
	Mapping *Mapping
	// Err is set for Rejected and Failed outcomes
	Err error
}

// Item converts the result to its wire shape
func (r WriteResult) Item() WriteItem {
	item := WriteItem{Path: r.Path, URL: r.URL}
	if r.Err != nil {
		item.Error = r.Err.Error()
	}
	return item
}

// Touched reports whether the write changed the store for Path
func (r WriteResult) Touched() bool {
	return (r.Outcome == OutcomeCreated || r.Outcome == OutcomeUpdated) && r.Path != ""
}
