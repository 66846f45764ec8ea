package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wfmarket-sync/internal/cache"
	"wfmarket-sync/internal/model"
	"wfmarket-sync/internal/repository"
)

// Page size bounds for ListItems.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

var (
	ErrItemNotFound     = errors.New("item not found")
	ErrInvalidOrderType = errors.New("order type must be buy or sell")
	ErrNoReport         = errors.New("no sync report recorded")
)

// MarketService answers read-only queries over synced market data.
type MarketService struct {
	reader  repository.MarketReader
	reports cache.Cache
}

// NewMarketService creates a query service. reports may be nil.
func NewMarketService(reader repository.MarketReader, reports cache.Cache) *MarketService {
	return &MarketService{reader: reader, reports: reports}
}

// Ping checks the underlying store.
func (s *MarketService) Ping(ctx context.Context) error {
	return s.reader.Ping(ctx)
}

// ListItems returns one page of the catalog. Out of range values fall back
// to the defaults.
func (s *MarketService) ListItems(ctx context.Context, limit, offset int) ([]model.Item, int, int, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.reader.ListItems(ctx, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, limit, offset, nil
}

// GetItem returns the item with the given slug.
func (s *MarketService) GetItem(ctx context.Context, urlName string) (*model.Item, error) {
	item, err := s.reader.GetItemByURLName(ctx, urlName)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// ListOrders returns the stored order book of an item. orderType may be
// empty, buy, or sell.
func (s *MarketService) ListOrders(ctx context.Context, urlName, orderType string) (*model.Item, []model.Order, error) {
	switch orderType {
	case "", model.OrderTypeBuy, model.OrderTypeSell:
	default:
		return nil, nil, ErrInvalidOrderType
	}

	item, err := s.GetItem(ctx, urlName)
	if err != nil {
		return nil, nil, err
	}

	orders, err := s.reader.ListOrdersByItem(ctx, item.ID, orderType)
	if err != nil {
		return nil, nil, err
	}
	return item, orders, nil
}

// Stats returns store counters.
func (s *MarketService) Stats(ctx context.Context) (*model.StoreStats, error) {
	return s.reader.GetStats(ctx)
}

// LastReport returns the report of the most recent sync.
func (s *MarketService) LastReport(ctx context.Context) (*model.SyncReport, error) {
	return s.report(ctx, LastReportKey)
}

// Report returns the report of a given run.
func (s *MarketService) Report(ctx context.Context, runID string) (*model.SyncReport, error) {
	return s.report(ctx, RunReportKey(runID))
}

func (s *MarketService) report(ctx context.Context, key string) (*model.SyncReport, error) {
	if s.reports == nil {
		return nil, ErrNoReport
	}

	data, err := s.reports.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report model.SyncReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
