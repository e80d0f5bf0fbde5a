package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	GetProductByID(ctx context.Context, id string) (*Product, error)
	GetProductByRFIDTag(ctx context.Context, tag string) (*Product, error)
	ListProducts(ctx context.Context, category string) ([]Product, error)
	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProductByID(ctx context.Context, id string) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Str("product_id", id).Msg("service: failed to fetch product by id")
		return nil, fmt.Errorf("service: failed to fetch product by id: %w", err)
	}

	return product, nil
}

func (s *service) GetProductByRFIDTag(ctx context.Context, tag string) (*Product, error) {
	product, err := s.repo.GetByRFIDTag(ctx, tag)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Str("rfid_tag", tag).Msg("service: failed to fetch product by rfid tag")
		return nil, fmt.Errorf("service: failed to fetch product by rfid tag: %w", err)
	}

	return product, nil
}

// ListProducts returns every product, or only one category's worth when
// category is non-empty.
func (s *service) ListProducts(ctx context.Context, category string) ([]Product, error) {
	var (
		products []Product
		err      error
	)
	if category == "" {
		products, err = s.repo.List(ctx)
	} else {
		products, err = s.repo.ListByCategory(ctx, category)
	}
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	return products, nil
}

func (s *service) CreateProduct(ctx context.Context, product *Product) error {
	if product.ID == "" {
		return errors.New("service: product id is required")
	}
	if product.Name == "" {
		return errors.New("service: product name is required")
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("service: product price must be non-negative, got %s", product.Price)
	}
	if product.RFIDTag == "" {
		return errors.New("service: product rfid tag is required")
	}

	product.Price = product.Price.Round(2)

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, ErrRFIDTagExists) {
			return ErrRFIDTagExists
		}
		log.Error().Err(err).Str("product_id", product.ID).Msg("service: failed to create product")
		return fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Str("product_id", product.ID).Str("name", product.Name).Msg("service: product created")

	return nil
}

func (s *service) UpdateProduct(ctx context.Context, product *Product) error {
	if product.Price.IsNegative() {
		return fmt.Errorf("service: product price must be non-negative, got %s", product.Price)
	}

	product.Price = product.Price.Round(2)

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrRFIDTagExists) {
			return err
		}
		log.Error().Err(err).Str("product_id", product.ID).Msg("service: failed to update product")
		return fmt.Errorf("service: failed to update product: %w", err)
	}

	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Str("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	return nil
}
