package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-process catalog, used by tests and the demo
// seed path.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[string]Product)}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}

	return &product, nil
}

func (r *MemoryRepository) GetByRFIDTag(_ context.Context, tag string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, product := range r.products {
		if product.RFIDTag == tag {
			p := product
			return &p, nil
		}
	}

	return nil, ErrProductNotFound
}

func (r *MemoryRepository) List(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })

	return products, nil
}

func (r *MemoryRepository) ListByCategory(_ context.Context, category string) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]Product, 0)
	for _, product := range r.products {
		if product.Category == category {
			products = append(products, product)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })

	return products, nil
}

func (r *MemoryRepository) Create(_ context.Context, product *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if existing.RFIDTag == product.RFIDTag {
			return ErrRFIDTagExists
		}
	}
	r.products[product.ID] = *product

	return nil
}

func (r *MemoryRepository) Update(_ context.Context, product *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return ErrProductNotFound
	}
	for id, existing := range r.products {
		if id != product.ID && existing.RFIDTag == product.RFIDTag {
			return ErrRFIDTagExists
		}
	}
	r.products[product.ID] = *product

	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)

	return nil
}
