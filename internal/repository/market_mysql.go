package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS items (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			url_name VARCHAR(255) NOT NULL,
			item_name VARCHAR(255) NOT NULL,
			thumb TEXT,
			last_seen VARCHAR(40)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id VARCHAR(64) NOT NULL PRIMARY KEY,
			item_id VARCHAR(64) NOT NULL,
			order_type VARCHAR(16) NOT NULL,
			platinum BIGINT NOT NULL,
			quantity BIGINT NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			user_status VARCHAR(32),
			mod_rank INT,
			region VARCHAR(16),
			platform VARCHAR(16),
			created_at VARCHAR(40),
			last_update VARCHAR(40),
			INDEX idx_orders_item_id (item_id),
			FOREIGN KEY (item_id) REFERENCES items(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	upsertItem: `
		INSERT INTO items (id, url_name, item_name, thumb, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			url_name = VALUES(url_name),
			item_name = VALUES(item_name),
			thumb = VALUES(thumb),
			last_seen = VALUES(last_seen)`,
	upsertOrder: `
		INSERT INTO orders (
			order_id, item_id, order_type, platinum, quantity, user_id,
			user_status, mod_rank, region, platform, created_at, last_update
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			item_id = VALUES(item_id),
			order_type = VALUES(order_type),
			platinum = VALUES(platinum),
			quantity = VALUES(quantity),
			user_id = VALUES(user_id),
			user_status = VALUES(user_status),
			mod_rank = VALUES(mod_rank),
			region = VALUES(region),
			platform = VALUES(platform),
			created_at = VALUES(created_at),
			last_update = VALUES(last_update)`,
}

// MySQLMarketRepository implements MarketStore using MySQL.
type MySQLMarketRepository struct {
	*sqlMarketStore
}

// NewMySQLMarketRepository connects to MySQL with the given DSN.
func NewMySQLMarketRepository(dsn string) (*MySQLMarketRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	log.Printf("[MySQLMarketRepository] Connected")
	return &MySQLMarketRepository{&sqlMarketStore{db: db, d: mysqlDialect}}, nil
}

// Ensure MySQLMarketRepository implements MarketStore
var _ MarketStore = (*MySQLMarketRepository)(nil)
