package shopping

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/unmanned-retail/store-service/internal/catalog"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further status transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusActive: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

var (
	ErrItemNotFound            = errors.New("basket item not found in session")
	ErrSessionClosed           = errors.New("session is completed or cancelled")
	ErrInvalidStatusTransition = errors.New("invalid session status transition")
)

// Session is the shopping aggregate for one basket: an ordered list of
// basket items plus the running total, mutated only through AddItem,
// RemoveItem, Complete and Cancel. Items keep scan order.
//
// A session is single-writer state. The aggregate does no locking; the
// surrounding service/persistence layer must serialize mutations per
// session id. Version backs the optimistic check the repository applies
// on save.
type Session struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	CustomerID    string       `json:"customer_id" db:"customer_id"`
	StoreID       string       `json:"store_id" db:"store_id"`
	BasketID      string       `json:"basket_id" db:"basket_id"`
	Status        Status       `json:"status" db:"status"`
	Items         []BasketItem `json:"items" db:"-"`
	RunningTotal  RunningTotal `json:"running_total"`
	StartedAt     time.Time    `json:"started_at" db:"started_at"`
	LastUpdatedAt time.Time    `json:"last_updated_at" db:"last_updated_at"`
	Version       int64        `json:"-" db:"version"`
}

// NewSession creates an ACTIVE session binding a customer to a basket.
func NewSession(customerID, storeID, basketID string) (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now().UTC()

	return &Session{
		ID:            id,
		CustomerID:    customerID,
		StoreID:       storeID,
		BasketID:      basketID,
		Status:        StatusActive,
		Items:         []BasketItem{},
		RunningTotal:  NewRunningTotal(),
		StartedAt:     now,
		LastUpdatedAt: now,
	}, nil
}

// AddItem adds one unit of product to the basket. If the product already
// has a line, its quantity is incremented; otherwise a new quantity-1
// line is appended. The running total picks up one unit price either
// way. Returns the affected line.
func (s *Session) AddItem(product *catalog.Product) (*BasketItem, error) {
	if s.Status.Terminal() {
		return nil, ErrSessionClosed
	}

	for i := range s.Items {
		if s.Items[i].ProductID == product.ID {
			s.Items[i].IncrementQuantity()
			s.RunningTotal.AddToSubtotal(product.Price)
			s.touch()
			return &s.Items[i], nil
		}
	}

	itemID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate basket item id: %w", err)
	}

	s.Items = append(s.Items, NewBasketItem(itemID, product, s.ID))
	s.RunningTotal.AddToSubtotal(product.Price)
	s.touch()

	return &s.Items[len(s.Items)-1], nil
}

// RemoveItem removes one unit from the line identified by itemID. One
// unit price is subtracted from the running total regardless of the
// remaining quantity. When the quantity reaches zero the line is deleted
// and removed is true; otherwise the returned item carries the
// decremented quantity.
func (s *Session) RemoveItem(itemID uuid.UUID) (item *BasketItem, removed bool, err error) {
	if s.Status.Terminal() {
		return nil, false, ErrSessionClosed
	}

	idx := -1
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false, ErrItemNotFound
	}

	gone := s.Items[idx].DecrementQuantity()
	s.RunningTotal.SubtractFromSubtotal(s.Items[idx].Price)
	s.touch()

	if gone {
		deleted := s.Items[idx]
		s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
		return &deleted, true, nil
	}

	return &s.Items[idx], false, nil
}

// Complete moves the session to COMPLETED.
func (s *Session) Complete() error {
	return s.transition(StatusCompleted)
}

// Cancel moves the session to CANCELLED.
func (s *Session) Cancel() error {
	return s.transition(StatusCancelled)
}

func (s *Session) transition(newStatus Status) error {
	// Re-setting the current status is an allowed no-op.
	if s.Status == newStatus {
		s.touch()
		return nil
	}

	if !allowedTransitions[s.Status][newStatus] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s.Status, newStatus)
	}

	s.Status = newStatus
	s.touch()

	return nil
}

// ItemCount returns the sum of all line quantities: the number of
// physical items in the basket, not the number of distinct lines.
func (s *Session) ItemCount() int {
	count := 0
	for i := range s.Items {
		count += s.Items[i].Quantity
	}
	return count
}

// ItemByID returns the line with the given id, or nil.
func (s *Session) ItemByID(itemID uuid.UUID) *BasketItem {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

func (s *Session) touch() {
	s.LastUpdatedAt = time.Now().UTC()
}
