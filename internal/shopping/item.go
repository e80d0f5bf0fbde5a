package shopping

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/unmanned-retail/store-service/internal/catalog"
)

// BasketItem is one line in a session's basket. Price is a snapshot of
// the product price taken when the item was first added, so later catalog
// price changes do not alter an open basket. Quantity is always >= 1
// while the item exists; a line that would drop to zero is removed from
// the session instead.
type BasketItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	SessionID uuid.UUID       `json:"session_id" db:"session_id"`
	ProductID string          `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	AddedAt   time.Time       `json:"added_at" db:"added_at"`
}

// NewBasketItem creates a quantity-1 line for product, snapshotting its
// current price.
func NewBasketItem(id uuid.UUID, product *catalog.Product, sessionID uuid.UUID) BasketItem {
	return BasketItem{
		ID:        id,
		SessionID: sessionID,
		ProductID: product.ID,
		Quantity:  1,
		Price:     product.Price,
		AddedAt:   time.Now().UTC(),
	}
}

// IncrementQuantity adds one unit to the line. There is no upper bound.
func (bi *BasketItem) IncrementQuantity() {
	bi.Quantity++
}

// DecrementQuantity removes one unit from the line and reports whether
// the quantity reached zero, signalling the caller to drop the line.
func (bi *BasketItem) DecrementQuantity() bool {
	bi.Quantity--
	return bi.Quantity <= 0
}

// TotalPrice returns price * quantity. The price snapshot is already at
// two decimal places, so no extra rounding is applied here.
func (bi *BasketItem) TotalPrice() decimal.Decimal {
	return bi.Price.Mul(decimal.NewFromInt(int64(bi.Quantity)))
}
