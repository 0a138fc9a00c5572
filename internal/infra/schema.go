package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zimsave/zimsave_plus/internal/store"
)

// EnsureSchema creates the key-value table used by the postgres store.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, store.Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
