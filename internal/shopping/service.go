package shopping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/unmanned-retail/store-service/internal/catalog"
	"github.com/unmanned-retail/store-service/internal/events"
)

// ProductResolver is the slice of the catalog the shopping layer needs:
// turning a product id or rfid tag into a concrete Product before the
// session is asked to add it.
type ProductResolver interface {
	GetByID(ctx context.Context, id string) (*catalog.Product, error)
	GetByRFIDTag(ctx context.Context, tag string) (*catalog.Product, error)
}

// BasketUpdate is what a basket mutation hands back to the caller: the
// saved session, the affected line, and whether the line was deleted
// outright.
type BasketUpdate struct {
	Session *Session
	Item    BasketItem
	Removed bool
}

type Service interface {
	CreateSession(ctx context.Context, customerID, storeID, basketID string) (*Session, error)
	SessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	SessionByBasketID(ctx context.Context, basketID string) (*Session, error)
	SessionItems(ctx context.Context, sessionID uuid.UUID) ([]BasketItem, error)
	SessionsByCustomerID(ctx context.Context, customerID string) ([]Session, error)
	ActiveSessionsByCustomerID(ctx context.Context, customerID string) ([]Session, error)
	AddItemByProductID(ctx context.Context, sessionID uuid.UUID, productID string) (*BasketUpdate, error)
	AddItemByRFIDTag(ctx context.Context, sessionID uuid.UUID, rfidTag string) (*BasketUpdate, error)
	RemoveItem(ctx context.Context, sessionID, itemID uuid.UUID) (*BasketUpdate, error)
	CompleteSession(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	CancelSession(ctx context.Context, sessionID uuid.UUID) (*Session, error)
}

type service struct {
	sessions  Repository
	products  ProductResolver
	publisher events.Publisher
}

func NewService(sessions Repository, products ProductResolver, publisher events.Publisher) Service {
	return &service{
		sessions:  sessions,
		products:  products,
		publisher: publisher,
	}
}

// CreateSession starts a session for a basket. If the basket already has
// an ACTIVE session it is returned instead of creating a duplicate.
// This is the sole mechanism keeping one active session per basket.
func (s *service) CreateSession(ctx context.Context, customerID, storeID, basketID string) (*Session, error) {
	existing, err := s.sessions.GetActiveByBasketID(ctx, basketID)
	if err == nil {
		log.Info().Stringer("session_id", existing.ID).Str("basket_id", basketID).Msg("service: basket already has an active session")
		return existing, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		log.Error().Err(err).Str("basket_id", basketID).Msg("service: failed to look up active session for basket")
		return nil, fmt.Errorf("service: failed to look up active session for basket %s: %w", basketID, err)
	}

	session, err := NewSession(customerID, storeID, basketID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create session: %w", err)
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		log.Error().Err(err).Str("basket_id", basketID).Msg("service: failed to save new session")
		return nil, fmt.Errorf("service: failed to save new session: %w", err)
	}

	log.Info().Stringer("session_id", session.ID).Str("customer_id", customerID).Str("basket_id", basketID).Msg("service: session created")

	return session, nil
}

func (s *service) SessionByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		log.Error().Err(err).Stringer("session_id", id).Msg("service: failed to fetch session by id")
		return nil, fmt.Errorf("service: failed to fetch session by id: %w", err)
	}

	return session, nil
}

func (s *service) SessionByBasketID(ctx context.Context, basketID string) (*Session, error) {
	session, err := s.sessions.GetActiveByBasketID(ctx, basketID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		log.Error().Err(err).Str("basket_id", basketID).Msg("service: failed to fetch session by basket id")
		return nil, fmt.Errorf("service: failed to fetch session by basket id: %w", err)
	}

	return session, nil
}

func (s *service) SessionItems(ctx context.Context, sessionID uuid.UUID) ([]BasketItem, error) {
	session, err := s.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return session.Items, nil
}

func (s *service) SessionsByCustomerID(ctx context.Context, customerID string) ([]Session, error) {
	sessions, err := s.sessions.GetByCustomerID(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("service: failed to fetch sessions for customer")
		return nil, fmt.Errorf("service: failed to fetch sessions for customer: %w", err)
	}

	return sessions, nil
}

func (s *service) ActiveSessionsByCustomerID(ctx context.Context, customerID string) ([]Session, error) {
	sessions, err := s.SessionsByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	active := make([]Session, 0)
	for _, session := range sessions {
		if session.Status == StatusActive {
			active = append(active, session)
		}
	}

	return active, nil
}

func (s *service) AddItemByProductID(ctx context.Context, sessionID uuid.UUID, productID string) (*BasketUpdate, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		log.Error().Err(err).Str("product_id", productID).Msg("service: failed to resolve product by id")
		return nil, fmt.Errorf("service: failed to resolve product by id: %w", err)
	}

	return s.addItem(ctx, sessionID, product)
}

func (s *service) AddItemByRFIDTag(ctx context.Context, sessionID uuid.UUID, rfidTag string) (*BasketUpdate, error) {
	product, err := s.products.GetByRFIDTag(ctx, rfidTag)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		log.Error().Err(err).Str("rfid_tag", rfidTag).Msg("service: failed to resolve product by rfid tag")
		return nil, fmt.Errorf("service: failed to resolve product by rfid tag: %w", err)
	}

	return s.addItem(ctx, sessionID, product)
}

func (s *service) addItem(ctx context.Context, sessionID uuid.UUID, product *catalog.Product) (*BasketUpdate, error) {
	session, err := s.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	item, err := session.AddItem(product)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		log.Error().Err(err).Stringer("session_id", sessionID).Msg("service: failed to save session after add")
		return nil, fmt.Errorf("service: failed to save session after add: %w", err)
	}

	s.publisher.Publish(ctx, events.ItemAdded{
		BasketID:     session.BasketID,
		ProductID:    item.ProductID,
		ItemID:       item.ID.String(),
		RunningTotal: session.RunningTotal.Total,
		Timestamp:    time.Now().UTC(),
	})
	s.publisher.Publish(ctx, events.TotalUpdated{
		BasketID:     session.BasketID,
		RunningTotal: session.RunningTotal.Total,
		Timestamp:    time.Now().UTC(),
	})

	return &BasketUpdate{Session: session, Item: *item}, nil
}

func (s *service) RemoveItem(ctx context.Context, sessionID, itemID uuid.UUID) (*BasketUpdate, error) {
	session, err := s.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	item, removed, err := session.RemoveItem(itemID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		log.Error().Err(err).Stringer("session_id", sessionID).Msg("service: failed to save session after remove")
		return nil, fmt.Errorf("service: failed to save session after remove: %w", err)
	}

	s.publisher.Publish(ctx, events.ItemRemoved{
		BasketID:     session.BasketID,
		ProductID:    item.ProductID,
		ItemID:       item.ID.String(),
		RunningTotal: session.RunningTotal.Total,
		Timestamp:    time.Now().UTC(),
	})
	s.publisher.Publish(ctx, events.TotalUpdated{
		BasketID:     session.BasketID,
		RunningTotal: session.RunningTotal.Total,
		Timestamp:    time.Now().UTC(),
	})

	return &BasketUpdate{Session: session, Item: *item, Removed: removed}, nil
}

func (s *service) CompleteSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	return s.close(ctx, sessionID, StatusCompleted)
}

func (s *service) CancelSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	return s.close(ctx, sessionID, StatusCancelled)
}

func (s *service) close(ctx context.Context, sessionID uuid.UUID, status Status) (*Session, error) {
	session, err := s.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusCompleted:
		err = session.Complete()
	case StatusCancelled:
		err = session.Cancel()
	default:
		return nil, fmt.Errorf("%w: %s is not a terminal status", ErrInvalidStatusTransition, status)
	}
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		log.Error().Err(err).Stringer("session_id", sessionID).Stringer("status", status).Msg("service: failed to save closed session")
		return nil, fmt.Errorf("service: failed to save closed session: %w", err)
	}

	log.Info().Stringer("session_id", session.ID).Stringer("status", status).Msg("service: session closed")

	return session, nil
}
