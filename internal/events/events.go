// Package events carries the basket notification fan-out. Delivery is
// best-effort: publishers must never fail the mutation that triggered
// the event.
package events

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ItemAdded is published after an item lands in a basket.
type ItemAdded struct {
	BasketID     string          `json:"basket_id"`
	ProductID    string          `json:"product_id"`
	ItemID       string          `json:"item_id"`
	RunningTotal decimal.Decimal `json:"running_total"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ItemRemoved is published after a unit is removed from a basket.
type ItemRemoved struct {
	BasketID     string          `json:"basket_id"`
	ProductID    string          `json:"product_id"`
	ItemID       string          `json:"item_id"`
	RunningTotal decimal.Decimal `json:"running_total"`
	Timestamp    time.Time       `json:"timestamp"`
}

// TotalUpdated is published whenever a basket's running total changes.
type TotalUpdated struct {
	BasketID     string          `json:"basket_id"`
	RunningTotal decimal.Decimal `json:"running_total"`
	Timestamp    time.Time       `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event any)
}

// LogPublisher writes events to the structured log. Stand-in for a real
// broker; the contract is identical either way.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(_ context.Context, event any) {
	switch e := event.(type) {
	case ItemAdded:
		log.Info().Str("basket_id", e.BasketID).Str("product_id", e.ProductID).Str("item_id", e.ItemID).Stringer("running_total", e.RunningTotal).Msg("event: item added")
	case ItemRemoved:
		log.Info().Str("basket_id", e.BasketID).Str("product_id", e.ProductID).Str("item_id", e.ItemID).Stringer("running_total", e.RunningTotal).Msg("event: item removed")
	case TotalUpdated:
		log.Info().Str("basket_id", e.BasketID).Stringer("running_total", e.RunningTotal).Msg("event: total updated")
	default:
		log.Debug().Interface("event", event).Msg("event: unknown type")
	}
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, any) {}
