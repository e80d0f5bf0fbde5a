package catalog

import "github.com/shopspring/decimal"

// Product is a sellable item in the store catalog. Products are owned by
// the catalog and are read-only from a shopping session's point of view.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	RFIDTag     string          `json:"rfid_tag" db:"rfid_tag"`
	Description string          `json:"description,omitempty" db:"description"`
	Category    string          `json:"category,omitempty" db:"category"`
	ImageURL    string          `json:"image_url,omitempty" db:"image_url"`
}
