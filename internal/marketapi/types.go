package marketapi

// ItemsResponse from GET /items
type ItemsResponse struct {
	Payload *ItemsPayload `json:"payload"`
}

// ItemsPayload wraps the catalog list.
type ItemsPayload struct {
	Items []APIItem `json:"items"`
}

// APIItem represents a catalog entry from the marketplace API.
type APIItem struct {
	ID       string  `json:"id"`
	URLName  string  `json:"url_name"`
	ItemName string  `json:"item_name"`
	Thumb    *string `json:"thumb"`
}

// OrdersResponse from GET /items/{url_name}/orders
type OrdersResponse struct {
	Payload *OrdersPayload `json:"payload"`
}

// OrdersPayload wraps the order book.
type OrdersPayload struct {
	Orders []APIOrder `json:"orders"`
}

// APIOrder represents one order from the marketplace API.
type APIOrder struct {
	ID        string   `json:"id"`
	OrderType string   `json:"order_type"`
	Platinum  int64    `json:"platinum"`
	Quantity  int64    `json:"quantity"`
	User      *APIUser `json:"user"`
	ModRank   *int     `json:"mod_rank"`
	Region    *string  `json:"region"`
	Platform  *string  `json:"platform"`

	// Timestamps (ISO 8601), passed through untouched
	CreationDate *string `json:"creation_date"`
	LastUpdate   *string `json:"last_update"`
}

// APIUser is the order owner as embedded in an order.
type APIUser struct {
	ID     *string `json:"id"`
	Status *string `json:"status"`
}
