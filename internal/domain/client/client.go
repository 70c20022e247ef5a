package client

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested client does not exist.
var ErrNotFound = errors.New("client not found")

// Client represents a registered patient account.
type Client struct {
	ID               int64
	Name             string
	Email            string
	Phone            string
	Address          string
	Allergies        []string
	HealthConditions []string
	CreatedAt        time.Time
}

// Repository defines read operations for client records.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Client, error)
}
