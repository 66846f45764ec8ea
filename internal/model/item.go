package model

import "time"

// Item is a tradable catalog entry.
type Item struct {
	ID       string    `json:"id"`
	URLName  string    `json:"url_name"`
	ItemName string    `json:"item_name"`
	Thumb    *string   `json:"thumb,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}
