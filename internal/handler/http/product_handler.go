package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/unmanned-retail/store-service/internal/catalog"
)

type CreateProductRequest struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	RFIDTag     string          `json:"rfid_tag" validate:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	RFIDTag     string          `json:"rfid_tag" validate:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
}

type ProductHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewProductHandler(service catalog.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/products", h.handleCreateProduct)
	router.Get("/products", h.handleListProducts)
	router.Get("/products/{id}", h.handleGetProductByID)
	router.Get("/products/rfid/{tag}", h.handleGetProductByRFIDTag)
	router.Put("/products/{id}", h.handleUpdateProduct)
	router.Delete("/products/{id}", h.handleDeleteProduct)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateProductRequest

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

	product := catalog.Product{
		ID:          requestPayload.ID,
		Name:        requestPayload.Name,
		Price:       requestPayload.Price,
		RFIDTag:     requestPayload.RFIDTag,
		Description: requestPayload.Description,
		Category:    requestPayload.Category,
		ImageURL:    requestPayload.ImageURL,
	}

	if err := h.service.CreateProduct(r.Context(), &product); err != nil {
		log.Error().Err(err).Str("product_id", product.ID).Msg("Failed to create product via service")

		var clientMessage string
		if errors.Is(err, catalog.ErrRFIDTagExists) {
			clientMessage = "RFID tag already exists"
		} else {
			clientMessage = "Failed to create product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	products, err := h.service.ListProducts(r.Context(), category)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleGetProductByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		var clientMessage string
		if errors.Is(err, catalog.ErrProductNotFound) {
			clientMessage = "Product not found"
		} else {
			log.Error().Err(err).Str("product_id", id).Msg("Failed to get product via service")
			clientMessage = "Failed to get product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) handleGetProductByRFIDTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	product, err := h.service.GetProductByRFIDTag(r.Context(), tag)
	if err != nil {
		var clientMessage string
		if errors.Is(err, catalog.ErrProductNotFound) {
			clientMessage = "Product not found"
		} else {
			log.Error().Err(err).Str("rfid_tag", tag).Msg("Failed to get product by rfid tag via service")
			clientMessage = "Failed to get product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var requestPayload UpdateProductRequest

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

	product := catalog.Product{
		ID:          id,
		Name:        requestPayload.Name,
		Price:       requestPayload.Price,
		RFIDTag:     requestPayload.RFIDTag,
		Description: requestPayload.Description,
		Category:    requestPayload.Category,
		ImageURL:    requestPayload.ImageURL,
	}

	if err := h.service.UpdateProduct(r.Context(), &product); err != nil {
		var clientMessage string
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			clientMessage = "Product not found"
		case errors.Is(err, catalog.ErrRFIDTagExists):
			clientMessage = "RFID tag already exists"
		default:
			log.Error().Err(err).Str("product_id", id).Msg("Failed to update product via service")
			clientMessage = "Failed to update product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		var clientMessage string
		if errors.Is(err, catalog.ErrProductNotFound) {
			clientMessage = "Product not found"
		} else {
			log.Error().Err(err).Str("product_id", id).Msg("Failed to delete product via service")
			clientMessage = "Failed to delete product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) validatePayload(w http.ResponseWriter, payload any) bool {
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
