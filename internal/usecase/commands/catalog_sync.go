package commands

import (
	"context"
	"log/slog"
	"strings"

	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/pkg/ptr"
)

// CatalogSync keeps stock items in step with product variant notifications from the catalog.
type CatalogSync struct {
	ledger            *StockLedger
	logger            *slog.Logger
	defaultWarehouse  string
	lowStockThreshold int64
}

func NewCatalogSync(ledger *StockLedger, logger *slog.Logger, cfg config.Config) *CatalogSync {
	return &CatalogSync{
		ledger:            ledger,
		logger:            logger,
		defaultWarehouse:  cfg.Catalog.DefaultWarehouseID,
		lowStockThreshold: cfg.Ledger.LowStockThreshold,
	}
}

func (s *CatalogSync) Handle(ctx context.Context, n VariantNotification) (*CatalogResult, error) {
	if !n.Kind.IsValid() {
		return nil, errs.Validation("unknown notification kind %q", n.Kind)
	}
	warehouseID := strings.TrimSpace(n.WarehouseID)
	if warehouseID == "" {
		warehouseID = s.defaultWarehouse
	}
	key, err := stock.NewKey(warehouseID, n.ProductVariantID)
	if err != nil {
		return nil, err
	}

	switch n.Kind {
	case VariantCreated, VariantUpdated:
		initial := ptr.Deref(n.InitialStock, 0)
		state, created, err := s.ledger.Create(ctx, key, n.SKU, initial, s.lowStockThreshold)
		if err != nil {
			return nil, err
		}
		if !created {
			return &CatalogResult{Action: CatalogUnchanged, Item: state}, nil
		}
		s.logger.Info("stock item created from catalog", "aggregate_id", key.AggregateID(), "initial_stock", initial)
		return &CatalogResult{Action: CatalogCreated, Item: state}, nil

	default:
		state, changed, err := s.ledger.execute(ctx, key, stock.Discontinue{})
		if errs.Is(err, stock.ErrItemNotFound) {
			return &CatalogResult{Action: CatalogUnchanged}, nil
		}
		if err != nil {
			return nil, err
		}
		if !changed {
			return &CatalogResult{Action: CatalogUnchanged, Item: state}, nil
		}
		s.logger.Info("stock item discontinued from catalog", "aggregate_id", key.AggregateID())
		return &CatalogResult{Action: CatalogDiscontinued, Item: state}, nil
	}
}
