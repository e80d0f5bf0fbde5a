package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/unmanned-retail/store-service/internal/shopping"
)

type CreateSessionRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	StoreID    string `json:"store_id" validate:"required"`
	BasketID   string `json:"basket_id" validate:"required"`
}

// ItemAddRequest identifies the product either by catalog id or by the
// rfid tag read from the basket scanner. Exactly one is expected; when
// both are present the rfid tag wins.
type ItemAddRequest struct {
	ProductID string `json:"product_id" validate:"required_without=RFIDTag"`
	RFIDTag   string `json:"rfid_tag" validate:"required_without=ProductID"`
}

type BasketItemResponse struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	AddedAt   time.Time       `json:"added_at"`
}

type RunningTotalResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type SessionResponse struct {
	ID            uuid.UUID            `json:"id"`
	CustomerID    string               `json:"customer_id"`
	StoreID       string               `json:"store_id"`
	BasketID      string               `json:"basket_id"`
	Status        string               `json:"status"`
	Items         []BasketItemResponse `json:"items"`
	RunningTotal  RunningTotalResponse `json:"running_total"`
	ItemCount     int                  `json:"item_count"`
	StartedAt     time.Time            `json:"started_at"`
	LastUpdatedAt time.Time            `json:"last_updated_at"`
}

type BasketContentsResponse struct {
	BasketID      string               `json:"basket_id"`
	Items         []BasketItemResponse `json:"items"`
	RunningTotal  RunningTotalResponse `json:"running_total"`
	ItemCount     int                  `json:"item_count"`
	LastUpdatedAt time.Time            `json:"last_updated_at"`
}

type BasketUpdateResponse struct {
	BasketID     string               `json:"basket_id"`
	Action       string               `json:"action"`
	Item         BasketItemResponse   `json:"item"`
	RunningTotal RunningTotalResponse `json:"running_total"`
	ItemCount    int                  `json:"item_count"`
	Message      string               `json:"message"`
}

type ShoppingHandler struct {
	service  shopping.Service
	validate *validator.Validate
}

func NewShoppingHandler(service shopping.Service) *ShoppingHandler {
	return &ShoppingHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ShoppingHandler) RegisterRoutes(router chi.Router) {
	router.Post("/sessions", h.handleCreateSession)
	router.Get("/sessions/{id}", h.handleGetSession)
	router.Get("/sessions/{id}/items", h.handleGetSessionItems)
	router.Post("/sessions/{id}/complete", h.handleCompleteSession)
	router.Post("/sessions/{id}/cancel", h.handleCancelSession)
	router.Get("/customers/{customerID}/sessions", h.handleGetCustomerSessions)

	router.Get("/stores/{storeID}/baskets/{basketID}/items", h.handleGetBasketContents)
	router.Post("/stores/{storeID}/baskets/{basketID}/items", h.handleAddItemToBasket)
	router.Delete("/stores/{storeID}/baskets/{basketID}/items/{itemID}", h.handleRemoveItemFromBasket)
}

func (h *ShoppingHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateSessionRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return
	}

	if !h.validatePayload(w, requestPayload) {
		return
	}

	session, err := h.service.CreateSession(r.Context(), requestPayload.CustomerID, requestPayload.StoreID, requestPayload.BasketID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create session")
		return
	}

	respondWithJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *ShoppingHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.parseSessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.SessionByID(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get session")
		return
	}

	respondWithJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *ShoppingHandler) handleGetSessionItems(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.parseSessionID(w, r)
	if !ok {
		return
	}

	items, err := h.service.SessionItems(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get session items")
		return
	}

	respondWithJSON(w, http.StatusOK, toBasketItemResponses(items))
}

func (h *ShoppingHandler) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.parseSessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.CompleteSession(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to complete session")
		return
	}

	respondWithJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *ShoppingHandler) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.parseSessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.CancelSession(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to cancel session")
		return
	}

	respondWithJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *ShoppingHandler) handleGetCustomerSessions(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		respondWithError(w, http.StatusBadRequest, "Customer id parameter cannot be empty")
		return
	}

	var (
		sessions []shopping.Session
		err      error
	)
	if r.URL.Query().Get("active") == "true" {
		sessions, err = h.service.ActiveSessionsByCustomerID(r.Context(), customerID)
	} else {
		sessions, err = h.service.SessionsByCustomerID(r.Context(), customerID)
	}
	if err != nil {
		h.respondServiceError(w, err, "Failed to get customer sessions")
		return
	}

	responsePayload := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		responsePayload = append(responsePayload, toSessionResponse(&sessions[i]))
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *ShoppingHandler) handleGetBasketContents(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")

	session, err := h.service.SessionByBasketID(r.Context(), basketID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get basket contents")
		return
	}

	responsePayload := BasketContentsResponse{
		BasketID:      basketID,
		Items:         toBasketItemResponses(session.Items),
		RunningTotal:  toRunningTotalResponse(session.RunningTotal),
		ItemCount:     session.ItemCount(),
		LastUpdatedAt: session.LastUpdatedAt,
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *ShoppingHandler) handleAddItemToBasket(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")

	session, err := h.service.SessionByBasketID(r.Context(), basketID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to find session for basket")
		return
	}

	var requestPayload ItemAddRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return
	}

	if !h.validatePayload(w, requestPayload) {
		return
	}

	var update *shopping.BasketUpdate
	if requestPayload.RFIDTag != "" {
		update, err = h.service.AddItemByRFIDTag(r.Context(), session.ID, requestPayload.RFIDTag)
	} else {
		update, err = h.service.AddItemByProductID(r.Context(), session.ID, requestPayload.ProductID)
	}
	if err != nil {
		h.respondServiceError(w, err, "Failed to add item to basket")
		return
	}

	responsePayload := BasketUpdateResponse{
		BasketID:     basketID,
		Action:       "item_added",
		Item:         toBasketItemResponse(update.Item),
		RunningTotal: toRunningTotalResponse(update.Session.RunningTotal),
		ItemCount:    update.Session.ItemCount(),
		Message:      "Item added to basket",
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *ShoppingHandler) handleRemoveItemFromBasket(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")

	itemIDParam := chi.URLParam(r, "itemID")
	itemID, err := uuid.FromString(itemIDParam)
	if err != nil {
		log.Warn().Err(err).Str("item_id", itemIDParam).Msg("Failed to parse item id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid item id parameter")
		return
	}

	session, err := h.service.SessionByBasketID(r.Context(), basketID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to find session for basket")
		return
	}

	update, err := h.service.RemoveItem(r.Context(), session.ID, itemID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to remove item from basket")
		return
	}

	message := "Item removed from basket"
	if update.Removed {
		message = "Item fully removed from basket"
	}

	responsePayload := BasketUpdateResponse{
		BasketID:     basketID,
		Action:       "item_removed",
		Item:         toBasketItemResponse(update.Item),
		RunningTotal: toRunningTotalResponse(update.Session.RunningTotal),
		ItemCount:    update.Session.ItemCount(),
		Message:      message,
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *ShoppingHandler) validatePayload(w http.ResponseWriter, payload any) bool {
	err := h.validate.Struct(payload)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
	} else {
		log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "Internal validation error")
	}

	return false
}

func (h *ShoppingHandler) parseSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	sessionID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("session_id", idParam).Msg("Failed to parse session id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid session id parameter")
		return uuid.Nil, false
	}
	return sessionID, true
}

func (h *ShoppingHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	statusCode := mapErrorToStatusCode(err)

	clientMessage := fallback
	switch statusCode {
	case http.StatusNotFound:
		clientMessage = "Not found"
	case http.StatusConflict:
		clientMessage = err.Error()
	default:
		log.Error().Err(err).Msg(fallback)
	}

	respondWithError(w, statusCode, clientMessage)
}

func toSessionResponse(session *shopping.Session) SessionResponse {
	return SessionResponse{
		ID:            session.ID,
		CustomerID:    session.CustomerID,
		StoreID:       session.StoreID,
		BasketID:      session.BasketID,
		Status:        session.Status.String(),
		Items:         toBasketItemResponses(session.Items),
		RunningTotal:  toRunningTotalResponse(session.RunningTotal),
		ItemCount:     session.ItemCount(),
		StartedAt:     session.StartedAt,
		LastUpdatedAt: session.LastUpdatedAt,
	}
}

func toBasketItemResponse(item shopping.BasketItem) BasketItemResponse {
	return BasketItemResponse{
		ItemID:    item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Price:     item.Price,
		AddedAt:   item.AddedAt,
	}
}

func toBasketItemResponses(items []shopping.BasketItem) []BasketItemResponse {
	responses := make([]BasketItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toBasketItemResponse(item))
	}
	return responses
}

func toRunningTotalResponse(rt shopping.RunningTotal) RunningTotalResponse {
	return RunningTotalResponse{
		Subtotal: rt.Subtotal,
		Tax:      rt.Tax,
		Total:    rt.Total,
	}
}
