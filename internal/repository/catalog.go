package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jnyame21/aivise-health/internal/domain/catalog"
)

const (
	listDrugsSQL = `SELECT id, name, generic_name, brand, description, dosage_forms, routes,
		pharm_classes, active_ingredients, manufacturer, prescription_required, created_at
		FROM drugs ORDER BY name`

	listStocksSQL = `SELECT s.id, s.drug_id, d.name, s.batch_number, s.name, s.strength,
		s.quantity, s.price, s.expiry_date, s.prescription_required, s.received_at
		FROM drug_stocks s JOIN drugs d ON d.id = s.drug_id ORDER BY s.id`

	getStockSQL = `SELECT s.id, s.drug_id, d.name, s.batch_number, s.name, s.strength,
		s.quantity, s.price, s.expiry_date, s.prescription_required, s.received_at
		FROM drug_stocks s JOIN drugs d ON d.id = s.drug_id WHERE s.id = $1`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListDrugs returns all drugs ordered by name.
func (r *CatalogRepository) ListDrugs(ctx context.Context) ([]catalog.Drug, error) {
	rows, err := r.pool.Query(ctx, listDrugsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing drugs: %w", err)
	}
	return pgx.CollectRows(rows, scanDrug)
}

// ListStocks returns all stock batches with their drug names.
func (r *CatalogRepository) ListStocks(ctx context.Context) ([]catalog.Stock, error) {
	rows, err := r.pool.Query(ctx, listStocksSQL)
	if err != nil {
		return nil, fmt.Errorf("listing stocks: %w", err)
	}
	return pgx.CollectRows(rows, scanStock)
}

// GetStock returns a single stock batch by its identifier.
func (r *CatalogRepository) GetStock(ctx context.Context, id int64) (*catalog.Stock, error) {
	rows, err := r.pool.Query(ctx, getStockSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting stock %d: %w", id, err)
	}

	st, err := pgx.CollectExactlyOneRow(rows, scanStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrStockNotFound
		}
		return nil, fmt.Errorf("getting stock %d: %w", id, err)
	}
	return &st, nil
}

func scanDrug(row pgx.CollectableRow) (catalog.Drug, error) {
	var d catalog.Drug
	err := row.Scan(
		&d.ID, &d.Name, &d.GenericName, &d.Brand, &d.Description,
		&d.DosageForms, &d.Routes, &d.PharmClasses, &d.ActiveIngredients,
		&d.Manufacturer, &d.PrescriptionRequired, &d.CreatedAt,
	)
	return d, err
}

func scanStock(row pgx.CollectableRow) (catalog.Stock, error) {
	var st catalog.Stock
	err := row.Scan(
		&st.ID, &st.DrugID, &st.DrugName, &st.BatchNumber, &st.Name, &st.Strength,
		&st.Quantity, &st.Price, &st.ExpiryDate, &st.PrescriptionRequired, &st.ReceivedAt,
	)
	return st, err
}
