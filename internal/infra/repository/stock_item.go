package repository

import (
	"context"
	"log/slog"

	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/infra/converter"
	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/usecase/readmodel"
)

type StockItemRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewStockItemRepository(dbtx db.DBTX, logger *slog.Logger) *StockItemRepository {
	return &StockItemRepository{db: dbtx, logger: logger}
}

// Save inserts the row for expectedVersion 0 and otherwise updates it only if it is still
// at expectedVersion.
func (r *StockItemRepository) Save(ctx context.Context, s stock.State, expectedVersion int64) error {
	if expectedVersion == 0 {
		_, err := r.db.Exec(ctx, `INSERT INTO stock_items (
				warehouse_id, item_id, sku, on_hand, reserved, low_stock_threshold, status, version, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			s.WarehouseID, s.ItemID, s.SKU, s.OnHand, s.Reserved, s.LowStockThreshold, s.Status.String(), s.Version, s.UpdatedAt)
		if err != nil {
			if infra.ClassifyPgErr(err) == infra.KindDuplicateKey {
				return infra.WrapRepoErr(r.logger, infra.KindVersionConflict, "stock item created concurrently", err)
			}
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to insert stock item", err)
		}
		return nil
	}

	tag, err := r.db.Exec(ctx, `UPDATE stock_items
		SET sku = $3, on_hand = $4, reserved = $5, low_stock_threshold = $6, status = $7, version = $8, updated_at = $9
		WHERE warehouse_id = $1 AND item_id = $2 AND version = $10`,
		s.WarehouseID, s.ItemID, s.SKU, s.OnHand, s.Reserved, s.LowStockThreshold, s.Status.String(), s.Version, s.UpdatedAt,
		expectedVersion)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update stock item", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindVersionConflict, "stock item moved past expected version", nil)
	}
	return nil
}

func (r *StockItemRepository) Get(ctx context.Context, key stock.Key) (*readmodel.StockItemRM, error) {
	var (
		s      stock.State
		status string
	)
	err := r.db.QueryRow(ctx, `SELECT warehouse_id, item_id, sku, on_hand, reserved, low_stock_threshold, status, version, updated_at
		FROM stock_items WHERE warehouse_id = $1 AND item_id = $2`, key.WarehouseID, key.ItemID).
		Scan(&s.WarehouseID, &s.ItemID, &s.SKU, &s.OnHand, &s.Reserved, &s.LowStockThreshold, &status, &s.Version, &s.UpdatedAt)
	if err != nil {
		if infra.ClassifyPgErr(err) == infra.KindNotFound {
			return nil, stock.ErrItemNotFound
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to get stock item", err)
	}
	s.Status = stock.Status(status)
	s.UpdatedAt = s.UpdatedAt.UTC()
	rm := converter.StockItemToRM(s)
	return &rm, nil
}
