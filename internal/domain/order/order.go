package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jnyame21/aivise-health/internal/domain/catalog"
)

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusDelivered  Status = "delivered"
)

// Order represents one client purchase against the drug stock inventory.
type Order struct {
	ID       int64
	ClientID int64
	Address  string
	Status   Status
	Total    decimal.Decimal
	Date     time.Time
	Items    []Item
}

// Item is a single line within an order. Price, Total and DrugName are frozen
// at placement time and do not track later catalog changes; StockID is a
// non-owning reference that becomes nil when the stock batch is deleted.
type Item struct {
	ID       int64
	OrderID  int64
	StockID  *int64
	DrugName string
	Quantity int
	Price    decimal.Decimal
	Total    decimal.Decimal
}

// Snapshot freezes the stock batch's identity and unit price on the line and
// computes the line total.
func (i *Item) Snapshot(st catalog.Stock) {
	id := st.ID
	i.StockID = &id
	i.DrugName = st.DisplayName()
	i.Price = st.Price
	i.Total = st.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecalculateTotal recomputes the order total as the sum of its line totals.
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Total)
	}
	o.Total = total
}

// Sentinel errors for order operations.
var (
	ErrEmptyItems    = fmt.Errorf("items required")
	ErrOrderNotFound = fmt.Errorf("order not found")
)

// InvalidQuantityError indicates a line item has a negative quantity.
type InvalidQuantityError struct {
	StockID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must not be negative for stock item %d", e.StockID)
}

// StockNotFoundError indicates a requested stock batch does not exist.
type StockNotFoundError struct {
	StockID int64
}

func (e *StockNotFoundError) Error() string {
	return fmt.Sprintf("stock item %d not found", e.StockID)
}

// InsufficientStockError indicates a line requested more units than the stock
// batch currently holds.
type InsufficientStockError struct {
	StockID   int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d, available %d",
		e.StockID, e.Requested, e.Available)
}

// Repository defines persistence for orders. Place and Delete are atomic:
// either every row mutation they imply is committed, or none is.
type Repository interface {
	// Place persists the order header and lines, snapshotting unit prices and
	// decrementing stock quantities in one transaction. It populates the given
	// order in place (generated IDs, line snapshots, total).
	Place(ctx context.Context, o *Order) error
	// Delete restores stock quantities from the order's line snapshots and
	// removes the order together with its lines. Lines whose stock reference
	// was nulled in the interim are skipped.
	Delete(ctx context.Context, id int64) error
	// ListByClient returns a client's orders, newest first, with their lines.
	ListByClient(ctx context.Context, clientID int64) ([]Order, error)
}
