// Package seed loads sample catalog data and a demo shopping session so
// a freshly provisioned store has something to scan against.
package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/unmanned-retail/store-service/internal/catalog"
	"github.com/unmanned-retail/store-service/internal/shopping"
)

// Run seeds sample products when the catalog is empty and opens one demo
// ACTIVE session when none exists. Idempotent across restarts.
func Run(ctx context.Context, products catalog.Repository, shoppingSvc shopping.Service) error {
	existing, err := products.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: failed to list products: %w", err)
	}

	if len(existing) == 0 {
		for _, product := range sampleProducts() {
			p := product
			if err := products.Create(ctx, &p); err != nil {
				return fmt.Errorf("seed: failed to create sample product %s: %w", p.ID, err)
			}
		}
		log.Info().Int("count", len(sampleProducts())).Msg("seed: sample products loaded")
	} else {
		log.Info().Int("count", len(existing)).Msg("seed: products already present, skipping")
	}

	session, err := shoppingSvc.CreateSession(ctx, "demo-customer-1", "store-001", "basket-001")
	if err != nil {
		return fmt.Errorf("seed: failed to create demo session: %w", err)
	}

	if len(session.Items) == 0 {
		if _, err := shoppingSvc.AddItemByProductID(ctx, session.ID, "prod-001"); err != nil {
			return fmt.Errorf("seed: failed to add demo item: %w", err)
		}
		log.Info().Stringer("session_id", session.ID).Msg("seed: demo session prepared")
	}

	return nil
}

func sampleProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID:          "prod-001",
			Name:        "Sparkling Water 500ml",
			Price:       decimal.RequireFromString("2.49"),
			RFIDTag:     "RFID-0001",
			Description: "Lightly carbonated spring water",
			Category:    "beverages",
			ImageURL:    "https://example.com/images/sparkling-water.jpg",
		},
		{
			ID:          "prod-002",
			Name:        "Protein Bar Peanut",
			Price:       decimal.RequireFromString("3.99"),
			RFIDTag:     "RFID-0002",
			Description: "20g protein, peanut butter flavor",
			Category:    "snacks",
			ImageURL:    "https://example.com/images/protein-bar.jpg",
		},
		{
			ID:          "prod-003",
			Name:        "Cold Brew Coffee 330ml",
			Price:       decimal.RequireFromString("4.50"),
			RFIDTag:     "RFID-0003",
			Description: "Single origin, unsweetened",
			Category:    "beverages",
			ImageURL:    "https://example.com/images/cold-brew.jpg",
		},
		{
			ID:          "prod-004",
			Name:        "Turkey Sandwich",
			Price:       decimal.RequireFromString("6.75"),
			RFIDTag:     "RFID-0004",
			Description: "Whole grain bread, smoked turkey",
			Category:    "fresh",
			ImageURL:    "https://example.com/images/turkey-sandwich.jpg",
		},
		{
			ID:          "prod-005",
			Name:        "Greek Yogurt 150g",
			Price:       decimal.RequireFromString("1.95"),
			RFIDTag:     "RFID-0005",
			Description: "Plain, full fat",
			Category:    "dairy",
			ImageURL:    "https://example.com/images/greek-yogurt.jpg",
		},
	}
}
