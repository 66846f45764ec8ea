package repository

import (
	"context"

	"wfmarket-sync/internal/model"
)

// MarketRepository owns the items/orders schema and all writes to it.
type MarketRepository interface {
	// EnsureSchema creates tables and indexes if missing. Safe on every run.
	EnsureSchema(ctx context.Context) error

	// UpsertItems inserts or overwrites items by id in one transaction.
	UpsertItems(ctx context.Context, items []model.Item) error

	// UpsertOrders inserts or overwrites the orders of one item in one transaction.
	UpsertOrders(ctx context.Context, itemID string, orders []model.Order) error

	// Close closes the repository connection.
	Close() error
}

// MarketReader defines read-only queries over synced data.
type MarketReader interface {
	// Ping checks the store connection.
	Ping(ctx context.Context) error

	// ListItems returns items ordered by name.
	ListItems(ctx context.Context, limit, offset int) ([]model.Item, error)

	// GetItemByURLName returns nil, nil when no item has that slug.
	GetItemByURLName(ctx context.Context, urlName string) (*model.Item, error)

	// ListOrdersByItem returns an item's orders, optionally filtered by type.
	ListOrdersByItem(ctx context.Context, itemID, orderType string) ([]model.Order, error)

	// GetStats returns row counts and the latest sync time.
	GetStats(ctx context.Context) (*model.StoreStats, error)
}

// MarketStore is a repository usable by both the sync and the query API.
type MarketStore interface {
	MarketRepository
	MarketReader
}
