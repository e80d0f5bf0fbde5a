package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/unmanned-retail/store-service/internal/catalog"
	storeHandler "github.com/unmanned-retail/store-service/internal/handler/http"
	"github.com/unmanned-retail/store-service/internal/shopping"
)

type MockShoppingService struct {
	mock.Mock
}

func (m *MockShoppingService) CreateSession(ctx context.Context, customerID, storeID, basketID string) (*shopping.Session, error) {
	args := m.Called(ctx, customerID, storeID, basketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.Session), args.Error(1)
}

func (m *MockShoppingService) SessionByID(ctx context.Context, id uuid.UUID) (*shopping.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.Session), args.Error(1)
}

func (m *MockShoppingService) SessionByBasketID(ctx context.Context, basketID string) (*shopping.Session, error) {
	args := m.Called(ctx, basketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.Session), args.Error(1)
}

func (m *MockShoppingService) SessionItems(ctx context.Context, sessionID uuid.UUID) ([]shopping.BasketItem, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shopping.BasketItem), args.Error(1)
}

func (m *MockShoppingService) SessionsByCustomerID(ctx context.Context, customerID string) ([]shopping.Session, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shopping.Session), args.Error(1)
}

func (m *MockShoppingService) ActiveSessionsByCustomerID(ctx context.Context, customerID string) ([]shopping.Session, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shopping.Session), args.Error(1)
}

func (m *MockShoppingService) AddItemByProductID(ctx context.Context, sessionID uuid.UUID, productID string) (*shopping.BasketUpdate, error) {
	args := m.Called(ctx, sessionID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.BasketUpdate), args.Error(1)
}

func (m *MockShoppingService) AddItemByRFIDTag(ctx context.Context, sessionID uuid.UUID, rfidTag string) (*shopping.BasketUpdate, error) {
	args := m.Called(ctx, sessionID, rfidTag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.BasketUpdate), args.Error(1)
}

func (m *MockShoppingService) RemoveItem(ctx context.Context, sessionID, itemID uuid.UUID) (*shopping.BasketUpdate, error) {
	args := m.Called(ctx, sessionID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.BasketUpdate), args.Error(1)
}

func (m *MockShoppingService) CompleteSession(ctx context.Context, sessionID uuid.UUID) (*shopping.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.Session), args.Error(1)
}

func (m *MockShoppingService) CancelSession(ctx context.Context, sessionID uuid.UUID) (*shopping.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.Session), args.Error(1)
}

func newShoppingRouter(service shopping.Service) *chi.Mux {
	router := chi.NewRouter()
	storeHandler.NewShoppingHandler(service).RegisterRoutes(router)
	return router
}

func testSession(t *testing.T) *shopping.Session {
	t.Helper()
	session, err := shopping.NewSession("cust-1", "store-1", "basket-1")
	require.NoError(t, err)
	return session
}

func testSessionWithItem(t *testing.T) (*shopping.Session, *shopping.BasketItem) {
	t.Helper()
	session := testSession(t)
	item, err := session.AddItem(&catalog.Product{
		ID:      "p1",
		Name:    "Sparkling Water",
		Price:   dec(t, "2.49"),
		RFIDTag: "RFID-p1",
	})
	require.NoError(t, err)
	return session, item
}

func TestShoppingHandler_CreateSession_Success(t *testing.T) {
	mockService := new(MockShoppingService)
	session := testSession(t)

	mockService.On("CreateSession", mock.Anything, "cust-1", "store-1", "basket-1").Return(session, nil).Once()

	body := `{"customer_id":"cust-1","store_id":"store-1","basket_id":"basket-1"}`
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var response storeHandler.SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	assert.Equal(t, session.ID, response.ID)
	assert.Equal(t, "ACTIVE", response.Status)
	assert.Equal(t, 0, response.ItemCount)
	mockService.AssertExpectations(t)
}

func TestShoppingHandler_CreateSession_ValidationFailure(t *testing.T) {
	mockService := new(MockShoppingService)

	body := `{"customer_id":"cust-1"}`
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var response storeHandler.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	assert.Equal(t, "Validation failed", response.Error)
	assert.Contains(t, response.Details, "StoreID")
	assert.Contains(t, response.Details, "BasketID")
	mockService.AssertNotCalled(t, "CreateSession")
}

func TestShoppingHandler_GetBasketContents(t *testing.T) {
	mockService := new(MockShoppingService)
	session, item := testSessionWithItem(t)

	mockService.On("SessionByBasketID", mock.Anything, "basket-1").Return(session, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/stores/store-1/baskets/basket-1/items", nil)
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var response storeHandler.BasketContentsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	assert.Equal(t, "basket-1", response.BasketID)
	require.Len(t, response.Items, 1)
	assert.Equal(t, item.ID, response.Items[0].ItemID)
	assert.Equal(t, 1, response.ItemCount)
	assert.True(t, response.RunningTotal.Total.Equal(dec(t, "2.70")))
	mockService.AssertExpectations(t)
}

func TestShoppingHandler_GetBasketContents_NotFound(t *testing.T) {
	mockService := new(MockShoppingService)

	mockService.On("SessionByBasketID", mock.Anything, "basket-unknown").Return(nil, shopping.ErrSessionNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/stores/store-1/baskets/basket-unknown/items", nil)
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	mockService.AssertExpectations(t)
}

func TestShoppingHandler_AddItem_ByProductID(t *testing.T) {
	mockService := new(MockShoppingService)
	session, item := testSessionWithItem(t)

	mockService.On("SessionByBasketID", mock.Anything, "basket-1").Return(session, nil).Once()
	mockService.On("AddItemByProductID", mock.Anything, session.ID, "p1").
		Return(&shopping.BasketUpdate{Session: session, Item: *item}, nil).Once()

	body := `{"product_id":"p1"}`
	req := httptest.NewRequest(http.MethodPost, "/stores/store-1/baskets/basket-1/items", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var response storeHandler.BasketUpdateResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	assert.Equal(t, "item_added", response.Action)
	assert.Equal(t, item.ID, response.Item.ItemID)
	assert.Equal(t, "Item added to basket", response.Message)
	mockService.AssertExpectations(t)
}

func TestShoppingHandler_AddItem_RFIDTagWinsOverProductID(t *testing.T) {
	mockService := new(MockShoppingService)
	session, item := testSessionWithItem(t)

	mockService.On("SessionByBasketID", mock.Anything, "basket-1").Return(session, nil).Once()
	mockService.On("AddItemByRFIDTag", mock.Anything, session.ID, "RFID-p1").
		Return(&shopping.BasketUpdate{Session: session, Item: *item}, nil).Once()

	body := `{"product_id":"p1","rfid_tag":"RFID-p1"}`
	req := httptest.NewRequest(http.MethodPost, "/stores/store-1/baskets/basket-1/items", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
	mockService.AssertNotCalled(t, "AddItemByProductID")
}

func TestShoppingHandler_AddItem_MissingIdentifiers(t *testing.T) {
	mockService := new(MockShoppingService)
	session := testSession(t)

	mockService.On("SessionByBasketID", mock.Anything, "basket-1").Return(session, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/stores/store-1/baskets/basket-1/items", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "AddItemByProductID")
	mockService.AssertNotCalled(t, "AddItemByRFIDTag")
}

func TestShoppingHandler_AddItem_ClosedSessionConflict(t *testing.T) {
	mockService := new(MockShoppingService)
	session := testSession(t)

	mockService.On("SessionByBasketID", mock.Anything, "basket-1").Return(session, nil).Once()
	mockService.On("AddItemByProductID", mock.Anything, session.ID, "p1").
		Return(nil, shopping.ErrSessionClosed).Once()

	body := `{"product_id":"p1"}`
	req := httptest.NewRequest(http.MethodPost, "/stores/store-1/baskets/basket-1/items", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	mockService.AssertExpectations(t)
}

func TestShoppingHandler_RemoveItem_FullyRemoved(t *testing.T) {
	mockService := new(MockShoppingService)
	session, item := testSessionWithItem(t)

	mockService.On("SessionByBasketID", mock.Anything, "basket-1").Return(session, nil).Once()
	mockService.On("RemoveItem", mock.Anything, session.ID, item.ID).
		Return(&shopping.BasketUpdate{Session: session, Item: *item, Removed: true}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/stores/store-1/baskets/basket-1/items/"+item.ID.String(), nil)
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var response storeHandler.BasketUpdateResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	assert.Equal(t, "item_removed", response.Action)
	assert.Equal(t, "Item fully removed from basket", response.Message)
	mockService.AssertExpectations(t)
}

func TestShoppingHandler_RemoveItem_InvalidItemID(t *testing.T) {
	mockService := new(MockShoppingService)

	req := httptest.NewRequest(http.MethodDelete, "/stores/store-1/baskets/basket-1/items/not-a-uuid", nil)
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "RemoveItem")
}

func TestShoppingHandler_CompleteSession(t *testing.T) {
	mockService := new(MockShoppingService)
	session := testSession(t)
	require.NoError(t, session.Complete())

	mockService.On("CompleteSession", mock.Anything, session.ID).Return(session, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+session.ID.String()+"/complete", nil)
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var response storeHandler.SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	assert.Equal(t, "COMPLETED", response.Status)
	mockService.AssertExpectations(t)
}

func TestShoppingHandler_CancelSession_NotFound(t *testing.T) {
	mockService := new(MockShoppingService)
	sessionID := uuid.Must(uuid.NewV4())

	mockService.On("CancelSession", mock.Anything, sessionID).Return(nil, shopping.ErrSessionNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID.String()+"/cancel", nil)
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	mockService.AssertExpectations(t)
}

func TestShoppingHandler_GetCustomerSessions_ActiveFilter(t *testing.T) {
	mockService := new(MockShoppingService)
	session := testSession(t)

	mockService.On("ActiveSessionsByCustomerID", mock.Anything, "cust-1").
		Return([]shopping.Session{*session}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/customers/cust-1/sessions?active=true", nil)
	rr := httptest.NewRecorder()

	newShoppingRouter(mockService).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var response []storeHandler.SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	require.Len(t, response, 1)
	assert.Equal(t, session.ID, response[0].ID)
	mockService.AssertExpectations(t)
	mockService.AssertNotCalled(t, "SessionsByCustomerID")
}
