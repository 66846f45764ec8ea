package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wfmarket-sync/internal/model"
)

// dialect holds the statements that differ between backends. Queries are
// written with ? placeholders and rebound for backends that number them.
type dialect struct {
	name        string
	numbered    bool // $1, $2, ... placeholders
	schema      []string
	upsertItem  string
	upsertOrder string
}

func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ON CONFLICT upserts shared by SQLite and PostgreSQL.
const (
	upsertItemOnConflict = `
		INSERT INTO items (id, url_name, item_name, thumb, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url_name = excluded.url_name,
			item_name = excluded.item_name,
			thumb = excluded.thumb,
			last_seen = excluded.last_seen`

	upsertOrderOnConflict = `
		INSERT INTO orders (
			order_id, item_id, order_type, platinum, quantity, user_id,
			user_status, mod_rank, region, platform, created_at, last_update
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_id) DO UPDATE SET
			item_id = excluded.item_id,
			order_type = excluded.order_type,
			platinum = excluded.platinum,
			quantity = excluded.quantity,
			user_id = excluded.user_id,
			user_status = excluded.user_status,
			mod_rank = excluded.mod_rank,
			region = excluded.region,
			platform = excluded.platform,
			created_at = excluded.created_at,
			last_update = excluded.last_update`
)

const (
	itemColumns  = `id, url_name, item_name, thumb, last_seen`
	orderColumns = `order_id, item_id, order_type, platinum, quantity, user_id,
		user_status, mod_rank, region, platform, created_at, last_update`
)

// sqlMarketStore implements MarketStore over database/sql.
type sqlMarketStore struct {
	db *sql.DB
	d  dialect
}

// EnsureSchema creates the items and orders tables and the order index.
func (s *sqlMarketStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// UpsertItems inserts or updates multiple items in one transaction.
func (s *sqlMarketStore) UpsertItems(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.d.rebind(s.d.upsertItem))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx, item.ID, item.URLName, item.ItemName, nullString(item.Thumb), formatTime(item.LastSeen))
		if err != nil {
			return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpsertOrders inserts or updates the orders of one item in one transaction.
// Every order is stored under itemID regardless of its ItemID field.
func (s *sqlMarketStore) UpsertOrders(ctx context.Context, itemID string, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.d.rebind(s.d.upsertOrder))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		_, err := stmt.ExecContext(ctx,
			o.OrderID, itemID, o.OrderType, o.Platinum, o.Quantity, o.UserID,
			nullString(o.UserStatus), nullInt(o.ModRank), nullString(o.Region),
			nullString(o.Platform), nullString(o.CreatedAt), nullString(o.LastUpdate),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert order %s for item %s: %w", o.OrderID, itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *sqlMarketStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListItems returns a page of items ordered by display name.
func (s *sqlMarketStore) ListItems(ctx context.Context, limit, offset int) ([]model.Item, error) {
	query := s.d.rebind(`SELECT ` + itemColumns + ` FROM items ORDER BY item_name, id LIMIT ? OFFSET ?`)

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItemByURLName retrieves an item by its slug.
func (s *sqlMarketStore) GetItemByURLName(ctx context.Context, urlName string) (*model.Item, error) {
	query := s.d.rebind(`SELECT ` + itemColumns + ` FROM items WHERE url_name = ? ORDER BY last_seen DESC LIMIT 1`)

	item, err := scanItem(s.db.QueryRowContext(ctx, query, urlName))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

// ListOrdersByItem returns the orders of an item, cheapest first per type.
func (s *sqlMarketStore) ListOrdersByItem(ctx context.Context, itemID, orderType string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE item_id = ?`
	args := []any{itemID}
	if orderType != "" {
		query += ` AND order_type = ?`
		args = append(args, orderType)
	}
	query += ` ORDER BY order_type, platinum, order_id`

	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var (
			o                            model.Order
			userStatus, region, platform sql.NullString
			createdAt, lastUpdate        sql.NullString
			modRank                      sql.NullInt64
		)
		if err := rows.Scan(
			&o.OrderID, &o.ItemID, &o.OrderType, &o.Platinum, &o.Quantity, &o.UserID,
			&userStatus, &modRank, &region, &platform, &createdAt, &lastUpdate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.UserStatus = stringPtr(userStatus)
		o.Region = stringPtr(region)
		o.Platform = stringPtr(platform)
		o.CreatedAt = stringPtr(createdAt)
		o.LastUpdate = stringPtr(lastUpdate)
		if modRank.Valid {
			r := int(modRank.Int64)
			o.ModRank = &r
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetStats returns statistics about the market store.
func (s *sqlMarketStore) GetStats(ctx context.Context) (*model.StoreStats, error) {
	stats := &model.StoreStats{Backend: s.d.name}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&stats.Items); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&stats.Orders); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var lastSeen sql.NullString
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(last_seen) FROM items").Scan(&lastSeen); err != nil {
		return nil, fmt.Errorf("failed to read last sync time: %w", err)
	}
	if t, ok := parseTime(lastSeen); ok {
		stats.LastSeen = &t
	}

	return stats, nil
}

// Close closes the database connection.
func (s *sqlMarketStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var (
		item     model.Item
		thumb    sql.NullString
		lastSeen sql.NullString
	)
	if err := row.Scan(&item.ID, &item.URLName, &item.ItemName, &thumb, &lastSeen); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	item.Thumb = stringPtr(thumb)
	if t, ok := parseTime(lastSeen); ok {
		item.LastSeen = t
	}
	return &item, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) (time.Time, bool) {
	if !s.Valid || s.String == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s.String)
	}
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// Ensure sqlMarketStore implements MarketStore
var _ MarketStore = (*sqlMarketStore)(nil)
