package model

import "time"

// ItemFailure records an item whose order book could not be synced.
type ItemFailure struct {
	ItemID  string `json:"item_id"`
	URLName string `json:"url_name"`
	Error   string `json:"error"`
}

// SyncReport summarizes one sync pass, successful or not.
type SyncReport struct {
	RunID           string        `json:"run_id"`
	NominalBase     string        `json:"nominal_base"`
	ResolvedBase    string        `json:"resolved_base,omitempty"`
	State           string        `json:"state"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
	ItemsFetched    int           `json:"items_fetched"`
	ItemsSynced     int           `json:"items_synced"` // items whose order book was persisted
	OrdersPersisted int           `json:"orders_persisted"`
	Failures        []ItemFailure `json:"failures,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Duration returns how long the pass took.
func (r *SyncReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
