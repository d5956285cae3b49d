package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/usecase/commands"

	"github.com/segmentio/kafka-go"
)

// VariantMessage is the wire format of catalog variant notifications.
type VariantMessage struct {
	Kind             string `json:"kind"`
	ProductVariantID string `json:"productVariantId"`
	WarehouseID      string `json:"warehouseId,omitempty"`
	SKU              string `json:"sku,omitempty"`
	InitialStock     *int64 `json:"initialStock,omitempty"`
}

func (m VariantMessage) Notification() commands.VariantNotification {
	return commands.VariantNotification{
		Kind:             commands.NotificationKind(m.Kind),
		ProductVariantID: m.ProductVariantID,
		WarehouseID:      m.WarehouseID,
		SKU:              m.SKU,
		InitialStock:     m.InitialStock,
	}
}

// CatalogConsumer applies catalog notifications from a consumer group.
type CatalogConsumer struct {
	groupConsumer
	handler commands.CatalogCommands
}

func NewCatalogConsumer(reader MessageReader, handler commands.CatalogCommands, logger *slog.Logger, cfg config.CatalogConfig) (*CatalogConsumer, error) {
	base, err := newGroupConsumer("catalog", reader, logger, cfg.DedupCacheSize)
	if err != nil {
		return nil, err
	}
	return &CatalogConsumer{groupConsumer: base, handler: handler}, nil
}

func (c *CatalogConsumer) Run(ctx context.Context) error {
	return c.run(ctx, c.handle)
}

func (c *CatalogConsumer) handle(ctx context.Context, msg kafka.Message, id string) error {
	var m VariantMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		c.logger.Warn("discarding malformed catalog message", "message_id", id, "offset", msg.Offset, "error", err.Error())
		return nil
	}

	var result *commands.CatalogResult
	applied, err := c.apply(ctx, id, func() error {
		var err error
		result, err = c.handler.Handle(ctx, m.Notification())
		return err
	})
	if err != nil || !applied {
		return err
	}

	c.logger.Info("catalog notification applied",
		"message_id", id,
		"kind", m.Kind,
		"product_variant_id", m.ProductVariantID,
		"action", result.Action,
	)
	return nil
}
