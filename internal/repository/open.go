package repository

import "fmt"

// Options selects a backend for Open.
type Options struct {
	Type        string // sqlite, postgres, or mysql
	SQLitePath  string
	PostgresDSN string
	MySQLDSN    string
}

// Open returns the market store for the configured backend.
func Open(opts Options) (MarketStore, error) {
	var (
		store MarketStore
		err   error
	)

	switch opts.Type {
	case "postgres", "postgresql":
		var r *PostgresMarketRepository
		r, err = NewPostgresMarketRepository(opts.PostgresDSN)
		store = r
	case "mysql":
		var r *MySQLMarketRepository
		r, err = NewMySQLMarketRepository(opts.MySQLDSN)
		store = r
	case "sqlite", "":
		var r *SQLiteMarketRepository
		r, err = NewSQLiteMarketRepository(opts.SQLitePath)
		store = r
	default:
		return nil, fmt.Errorf("unknown store type %q", opts.Type)
	}

	if err != nil {
		return nil, err
	}
	return store, nil
}
