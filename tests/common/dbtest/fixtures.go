//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// counts the events stored for one aggregate, e.g. "stock:main/sku-1"
func CountEvents(t *testing.T, db DBLike, aggregateID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM events WHERE aggregate_id = $1", aggregateID).Scan(&n)
	require.NoError(t, err)
	return n
}

// counts the outbox entries of one aggregate in the given status
func CountOutbox(t *testing.T, db DBLike, aggregateID, status string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM outbox WHERE aggregate_id = $1 AND status = $2", aggregateID, status).Scan(&n)
	require.NoError(t, err)
	return n
}

// returns the stored (on_hand, reserved) pair of a stock item
func StockLevels(t *testing.T, db DBLike, warehouseID, itemID string) (onHand, reserved int64) {
	t.Helper()

	err := db.QueryRow(context.Background(),
		"SELECT on_hand, reserved FROM stock_items WHERE warehouse_id = $1 AND item_id = $2", warehouseID, itemID).
		Scan(&onHand, &reserved)
	require.NoError(t, err)
	return onHand, reserved
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables; only safe before the application caches any aggregate
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
