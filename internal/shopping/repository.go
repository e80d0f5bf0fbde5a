package shopping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNotFound = errors.New("shopping session not found")
	// ErrVersionConflict means the session was modified since it was
	// loaded. The caller should re-read and retry.
	ErrVersionConflict = errors.New("shopping session version conflict")
)

// Repository is the session directory: lookup by id or basket id plus
// persistence. Save applies an optimistic version check: it persists
// only if the stored version still matches the loaded one, which is how
// the single-writer-per-session contract is enforced across processes.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetActiveByBasketID(ctx context.Context, basketID string) (*Session, error)
	GetByCustomerID(ctx context.Context, customerID string) ([]Session, error)
	Save(ctx context.Context, session *Session) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const sessionColumns = `id, customer_id, store_id, basket_id, status, subtotal, tax, total, started_at, last_updated_at, version`

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM shopping_sessions
		WHERE id = $1
	`

	session, err := r.scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("repository: failed to select session by id %s: %w", id, err)
	}

	if err := r.loadItems(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (r *postgresRepository) GetActiveByBasketID(ctx context.Context, basketID string) (*Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM shopping_sessions
		WHERE basket_id = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1
	`

	session, err := r.scanSession(r.db.QueryRow(ctx, query, basketID, string(StatusActive)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("repository: failed to select session by basket id %s: %w", basketID, err)
	}

	if err := r.loadItems(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (r *postgresRepository) GetByCustomerID(ctx context.Context, customerID string) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM shopping_sessions
		WHERE customer_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query sessions for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	sessions := make([]Session, 0)
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan session for customer %s: %w", customerID, err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating sessions for customer %s: %w", customerID, err)
	}

	for i := range sessions {
		if err := r.loadItems(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}

	return sessions, nil
}

// Save persists the session and its items in one transaction. A session
// with version 0 is inserted; otherwise the row is updated only when the
// stored version matches, and the version is bumped. The basket_items
// rows are rewritten wholesale; item lists are small (one basket).
func (r *postgresRepository) Save(ctx context.Context, session *Session) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("session_id", session.ID).Msg("repository: failed to rollback session save")
			}
		}
	}()

	if session.Version == 0 {
		insertQuery := `
			INSERT INTO shopping_sessions (id, customer_id, store_id, basket_id, status, subtotal, tax, total, started_at, last_updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
		`
		_, err = tx.Exec(ctx, insertQuery,
			session.ID,
			session.CustomerID,
			session.StoreID,
			session.BasketID,
			string(session.Status),
			session.RunningTotal.Subtotal,
			session.RunningTotal.Tax,
			session.RunningTotal.Total,
			session.StartedAt,
			session.LastUpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert session %s: %w", session.ID, err)
		}
		session.Version = 1
	} else {
		updateQuery := `
			UPDATE shopping_sessions
			SET status = $1, subtotal = $2, tax = $3, total = $4, last_updated_at = $5, version = version + 1
			WHERE id = $6 AND version = $7
		`
		cmdTag, execErr := tx.Exec(ctx, updateQuery,
			string(session.Status),
			session.RunningTotal.Subtotal,
			session.RunningTotal.Tax,
			session.RunningTotal.Total,
			session.LastUpdatedAt,
			session.ID,
			session.Version,
		)
		if execErr != nil {
			err = fmt.Errorf("repository: failed to update session %s: %w", session.ID, execErr)
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			log.Warn().Stringer("session_id", session.ID).Int64("version", session.Version).Msg("repository: stale session version on save")
			err = ErrVersionConflict
			return err
		}
		session.Version++
	}

	_, err = tx.Exec(ctx, `DELETE FROM basket_items WHERE session_id = $1`, session.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear basket items for session %s: %w", session.ID, err)
	}

	itemQuery := `
		INSERT INTO basket_items (id, session_id, product_id, quantity, price, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range session.Items {
		item := &session.Items[i]
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			session.ID,
			item.ProductID,
			item.Quantity,
			item.Price,
			item.AddedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert basket item for session %s: %w", session.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit session save: %w", err)
	}

	return nil
}

func (r *postgresRepository) scanSession(row pgx.Row) (*Session, error) {
	var session Session
	var status string
	var startedAt, lastUpdatedAt time.Time

	err := row.Scan(
		&session.ID,
		&session.CustomerID,
		&session.StoreID,
		&session.BasketID,
		&status,
		&session.RunningTotal.Subtotal,
		&session.RunningTotal.Tax,
		&session.RunningTotal.Total,
		&startedAt,
		&lastUpdatedAt,
		&session.Version,
	)
	if err != nil {
		return nil, err
	}

	session.Status = Status(status)
	session.StartedAt = startedAt
	session.LastUpdatedAt = lastUpdatedAt
	session.Items = make([]BasketItem, 0)

	return &session, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, session *Session) error {
	query := `
		SELECT id, session_id, product_id, quantity, price, added_at
		FROM basket_items
		WHERE session_id = $1
		ORDER BY added_at
	`

	rows, err := r.db.Query(ctx, query, session.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to query basket items for session %s: %w", session.ID, err)
	}
	defer rows.Close()

	items := make([]BasketItem, 0)
	for rows.Next() {
		var item BasketItem
		err := rows.Scan(
			&item.ID,
			&item.SessionID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.AddedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan basket item for session %s: %w", session.ID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating basket items for session %s: %w", session.ID, err)
	}

	session.Items = items

	return nil
}
