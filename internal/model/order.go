package model

// Order types as reported by the marketplace.
const (
	OrderTypeBuy  = "buy"
	OrderTypeSell = "sell"
)

// UnknownUserID is stored when the source order carries no user id.
const UnknownUserID = "unknown"

// Order is one resting buy or sell offer for an item.
type Order struct {
	OrderID    string  `json:"order_id"`
	ItemID     string  `json:"item_id"`
	OrderType  string  `json:"order_type"`
	Platinum   int64   `json:"platinum"`
	Quantity   int64   `json:"quantity"`
	UserID     string  `json:"user_id"`
	UserStatus *string `json:"user_status,omitempty"`
	ModRank    *int    `json:"mod_rank,omitempty"`
	Region     *string `json:"region,omitempty"`
	Platform   *string `json:"platform,omitempty"`
	CreatedAt  *string `json:"created_at,omitempty"`
	LastUpdate *string `json:"last_update,omitempty"`
}
