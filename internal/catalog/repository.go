package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrRFIDTagExists   = errors.New("product with this rfid tag already exists")
)

// Repository is the catalog resolution contract consumed by the
// shopping layer, plus the management operations the catalog owns.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByRFIDTag(ctx context.Context, tag string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, name, price, rfid_tag, description, category, image_url`

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}

	return product, nil
}

func (r *postgresRepository) GetByRFIDTag(ctx context.Context, tag string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE rfid_tag = $1`

	product, err := scanProduct(r.db.QueryRow(ctx, query, tag))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by rfid tag %s: %w", tag, err)
	}

	return product, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name`
	return r.queryProducts(ctx, query)
}

func (r *postgresRepository) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY name`
	return r.queryProducts(ctx, query, category)
}

func (r *postgresRepository) Create(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (id, name, price, rfid_tag, description, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Price,
		product.RFIDTag,
		product.Description,
		product.Category,
		product.ImageURL,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrRFIDTagExists
		}
		return fmt.Errorf("repository: failed to insert product %s: %w", product.ID, err)
	}

	return nil
}

func (r *postgresRepository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products
		SET name = $1, price = $2, rfid_tag = $3, description = $4, category = $5, image_url = $6
		WHERE id = $7
	`

	cmdTag, err := r.db.Exec(ctx, query,
		product.Name,
		product.Price,
		product.RFIDTag,
		product.Description,
		product.Category,
		product.ImageURL,
		product.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrRFIDTagExists
		}
		return fmt.Errorf("repository: failed to update product %s: %w", product.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var product Product
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.RFIDTag,
		&product.Description,
		&product.Category,
		&product.ImageURL,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
