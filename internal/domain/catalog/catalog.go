package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrStockNotFound is returned when a requested stock batch does not exist.
var ErrStockNotFound = errors.New("stock item not found")

// Drug describes a medicine in the catalog. The descriptive fields follow the
// openFDA label shape (dosage forms, routes, pharmacologic classes).
type Drug struct {
	ID                   int64
	Name                 string
	GenericName          string
	Brand                string
	Description          string
	DosageForms          []string
	Routes               []string
	PharmClasses         []string
	ActiveIngredients    []string
	Manufacturer         string
	PrescriptionRequired bool
	CreatedAt            time.Time
}

// Stock is one purchasable batch of a drug. Quantity is mutated only by the
// order ledger and never goes negative.
type Stock struct {
	ID                   int64
	DrugID               int64
	DrugName             string
	BatchNumber          string
	Name                 string
	Strength             string
	Quantity             int
	Price                decimal.Decimal
	ExpiryDate           time.Time
	PrescriptionRequired bool
	ReceivedAt           time.Time
}

// DisplayName returns the batch label shown on order lines, falling back to
// the drug name when the batch has no label of its own.
func (s Stock) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.DrugName
}

// Repository defines read operations for the drug catalog. Stock quantity
// mutations happen inside the order ledger's transactions, not here.
type Repository interface {
	ListDrugs(ctx context.Context) ([]Drug, error)
	ListStocks(ctx context.Context) ([]Stock, error)
	GetStock(ctx context.Context, id int64) (*Stock, error)
}
