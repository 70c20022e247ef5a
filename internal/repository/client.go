package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jnyame21/aivise-health/internal/domain/client"
)

const getClientByIDSQL = `SELECT id, name, email, phone, address, allergies, health_conditions, created_at
	FROM clients WHERE id = $1`

var _ client.Repository = (*ClientRepository)(nil)

// ClientRepository implements client.Repository backed by PostgreSQL.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository returns a ClientRepository that uses the given pool.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// GetByID returns a single client by its identifier.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*client.Client, error) {
	var c client.Client
	err := r.pool.QueryRow(ctx, getClientByIDSQL, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.Allergies, &c.HealthConditions, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, client.ErrNotFound
		}
		return nil, fmt.Errorf("getting client %d: %w", id, err)
	}
	return &c, nil
}
