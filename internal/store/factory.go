package store

import (
	"context"
	"fmt"

	"github.com/TimurManjosov/odegate/internal/db"
)

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres". The postgres store is pinged
// before it is returned.
func NewStore(ctx context.Context, storeType, dbDSN string) (Store, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		sqlDB, err := db.Open(dbDSN)
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("database unreachable: %w", err)
		}
		return NewPostgresStore(sqlDB), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
