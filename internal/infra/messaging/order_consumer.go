package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/usecase/commands"

	"github.com/segmentio/kafka-go"
)

type OrderEventType string

const (
	OrderCreated   OrderEventType = "OrderCreated"
	OrderCancelled OrderEventType = "OrderCancelled"
	OrderPaid      OrderEventType = "OrderPaid"
)

type OrderLineMessage struct {
	WarehouseID string `json:"warehouseId,omitempty"`
	ItemID      string `json:"itemId"`
	Quantity    int64  `json:"quantity"`
}

// OrderMessage is the wire format of order lifecycle events. Lines and TTLSeconds are only
// read for OrderCreated.
type OrderMessage struct {
	EventType  string             `json:"eventType"`
	OrderID    string             `json:"orderId"`
	Lines      []OrderLineMessage `json:"lines,omitempty"`
	TTLSeconds int64              `json:"ttlSeconds,omitempty"`
}

// ReserveParams falls back to defaultWarehouse for lines without a warehouse.
func (m OrderMessage) ReserveParams(defaultWarehouse string) (commands.ReserveParams, error) {
	lines := make([]reservation.Line, 0, len(m.Lines))
	for _, l := range m.Lines {
		warehouse := l.WarehouseID
		if warehouse == "" {
			warehouse = defaultWarehouse
		}
		line, err := reservation.NewLine(warehouse, l.ItemID, l.Quantity)
		if err != nil {
			return commands.ReserveParams{}, err
		}
		lines = append(lines, line)
	}
	return commands.ReserveParams{
		OrderID: m.OrderID,
		Lines:   lines,
		TTL:     time.Duration(m.TTLSeconds) * time.Second,
	}, nil
}

// OrderConsumer reserves stock when an order is created, releases it when the order is
// cancelled and confirms it when the order is paid. Redelivered OrderCreated events replay
// the open reservation of the order.
type OrderConsumer struct {
	groupConsumer
	orders           commands.OrderCommands
	defaultWarehouse string
}

func NewOrderConsumer(reader MessageReader, orders commands.OrderCommands, logger *slog.Logger, cfg config.CatalogConfig) (*OrderConsumer, error) {
	base, err := newGroupConsumer("orders", reader, logger, cfg.DedupCacheSize)
	if err != nil {
		return nil, err
	}
	return &OrderConsumer{groupConsumer: base, orders: orders, defaultWarehouse: cfg.DefaultWarehouseID}, nil
}

func (c *OrderConsumer) Run(ctx context.Context) error {
	return c.run(ctx, c.handle)
}

func (c *OrderConsumer) handle(ctx context.Context, msg kafka.Message, id string) error {
	var m OrderMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		c.logger.Warn("discarding malformed order message", "message_id", id, "offset", msg.Offset, "error", err.Error())
		return nil
	}

	var fn func() error
	switch OrderEventType(m.EventType) {
	case OrderCreated:
		params, err := m.ReserveParams(c.defaultWarehouse)
		if err != nil {
			c.logger.Warn("discarding invalid order message", "message_id", id, "order_id", m.OrderID, "error", err.Error())
			return nil
		}
		fn = func() error {
			_, err := c.orders.ReserveStock(ctx, params)
			return err
		}
	case OrderCancelled:
		fn = func() error {
			_, err := c.orders.ReleaseByOrder(ctx, m.OrderID)
			return err
		}
	case OrderPaid:
		fn = func() error {
			_, err := c.orders.ConfirmByOrder(ctx, m.OrderID)
			return err
		}
	default:
		c.logger.Debug("ignoring order event", "message_id", id, "event_type", m.EventType)
		return nil
	}

	applied, err := c.apply(ctx, id, fn)
	if err != nil || !applied {
		return err
	}
	c.logger.Info("order event applied", "message_id", id, "event_type", m.EventType, "order_id", m.OrderID)
	return nil
}
