package repository

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			url_name TEXT NOT NULL,
			item_name TEXT NOT NULL,
			thumb TEXT,
			last_seen TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			order_type TEXT NOT NULL,
			platinum INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			user_status TEXT,
			mod_rank INTEGER,
			region TEXT,
			platform TEXT,
			created_at TEXT,
			last_update TEXT,
			FOREIGN KEY(item_id) REFERENCES items(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_item_id ON orders(item_id)`,
	},
	upsertItem:  upsertItemOnConflict,
	upsertOrder: upsertOrderOnConflict,
}

// SQLiteMarketRepository implements MarketStore on a local SQLite file.
type SQLiteMarketRepository struct {
	*sqlMarketStore
}

// NewSQLiteMarketRepository opens the SQLite database at dbPath, creating the
// file if needed. Foreign keys are enforced on the connection.
func NewSQLiteMarketRepository(dbPath string) (*SQLiteMarketRepository, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer; the sync holds this one connection for the run
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	log.Printf("[SQLiteMarketRepository] Opened database: %s", dbPath)
	return &SQLiteMarketRepository{&sqlMarketStore{db: db, d: sqliteDialect}}, nil
}

// sqlitePathEscaper escapes the characters that would end the path part of
// a SQLite URI filename. SQLite decodes %HH in the path.
var sqlitePathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func sqliteDSN(dbPath string) string {
	u := url.URL{
		Scheme:   "file",
		Opaque:   sqlitePathEscaper.Replace(dbPath),
		RawQuery: "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
	}
	return u.String()
}

// Ensure SQLiteMarketRepository implements MarketStore
var _ MarketStore = (*SQLiteMarketRepository)(nil)
