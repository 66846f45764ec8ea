package model

import "time"

// StoreStats describes the contents of the market store.
type StoreStats struct {
	Backend  string     `json:"backend"`
	Items    int64      `json:"items"`
	Orders   int64      `json:"orders"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}
