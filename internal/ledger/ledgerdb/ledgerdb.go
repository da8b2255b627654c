// Package ledgerdb opens the ledger store named by a driver and DSN.
package ledgerdb

import (
	"fmt"

	"github.com/davidahmann/tradedesk/internal/ledger"
	"github.com/davidahmann/tradedesk/internal/ledger/pgstore"
	"github.com/davidahmann/tradedesk/internal/ledger/sqlstore"
)

// Open returns a migrated store and a function that releases it. An empty
// driver selects the in-memory store.
func Open(driver, dsn string) (ledger.Store, func() error, error) {
	switch ledger.DBDriver(driver) {
	case "":
		return ledger.NewInMemoryStore(), func() error { return nil }, nil
	case ledger.DBSQLite:
		store, err := sqlstore.OpenSQLite(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := ledger.Migrate(store.DB(), ledger.DBSQLite); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return store, store.Close, nil
	case ledger.DBPostgres:
		store, err := pgstore.OpenPostgres(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := ledger.Migrate(store.DB(), ledger.DBPostgres); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}
