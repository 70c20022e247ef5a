package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Jnyame21/aivise-health/internal/domain/catalog"
	"github.com/Jnyame21/aivise-health/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (client_id, address, status, date)
		VALUES ($1, $2, $3, $4) RETURNING id`

	// FOR UPDATE OF s serializes concurrent placements touching the same batch.
	lockStockSQL = `SELECT s.id, s.drug_id, d.name, s.name, s.quantity, s.price
		FROM drug_stocks s JOIN drugs d ON d.id = s.drug_id
		WHERE s.id = $1 FOR UPDATE OF s`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, stock_id, drug_name, quantity, price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	decrementStockSQL = `UPDATE drug_stocks SET quantity = quantity - $2 WHERE id = $1`

	setOrderTotalSQL = `UPDATE orders SET total_price = $2 WHERE id = $1`

	lockOrderSQL = `SELECT id FROM orders WHERE id = $1 FOR UPDATE`

	countOrderItemsSQL = `SELECT COUNT(*), COUNT(stock_id) FROM order_items WHERE order_id = $1`

	// Quantities are summed per stock batch before the join: UPDATE..FROM
	// applies at most one joined row per target row, so joining order_items
	// directly would restore only one of several lines hitting the same
	// batch. Lines whose stock reference was nulled drop out of the subquery
	// and are simply not restored.
	restoreStockSQL = `UPDATE drug_stocks s SET quantity = s.quantity + i.quantity
		FROM (SELECT stock_id, SUM(quantity) AS quantity
			FROM order_items WHERE order_id = $1 AND stock_id IS NOT NULL
			GROUP BY stock_id) i
		WHERE s.id = i.stock_id`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	listOrdersByClientSQL = `SELECT id, client_id, address, status, total_price, date
		FROM orders WHERE client_id = $1 ORDER BY id DESC`

	listItemsByOrdersSQL = `SELECT id, order_id, stock_id, drug_name, quantity, price, total_price
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Place persists the order and its lines in one transaction. Each stock row is
// locked before it is read so the availability check and the decrement are
// serialized against concurrent placements. Any failure rolls back everything.
func (r *OrderRepository) Place(ctx context.Context, o *order.Order) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.ClientID, o.Address, string(o.Status), o.Date,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID

		var st catalog.Stock
		err = tx.QueryRow(ctx, lockStockSQL, *it.StockID).Scan(
			&st.ID, &st.DrugID, &st.DrugName, &st.Name, &st.Quantity, &st.Price,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &order.StockNotFoundError{StockID: *it.StockID}
			}
			return fmt.Errorf("locking stock %d: %w", *it.StockID, err)
		}

		if st.Quantity < it.Quantity {
			return &order.InsufficientStockError{
				StockID:   st.ID,
				Requested: it.Quantity,
				Available: st.Quantity,
			}
		}

		it.Snapshot(st)

		err = tx.QueryRow(ctx, insertOrderItemSQL,
			o.ID, st.ID, it.DrugName, it.Quantity, it.Price, it.Total,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("inserting order item for stock %d: %w", st.ID, err)
		}

		if _, err = tx.Exec(ctx, decrementStockSQL, st.ID, it.Quantity); err != nil {
			return fmt.Errorf("decrementing stock %d: %w", st.ID, err)
		}
	}

	o.RecalculateTotal()
	if _, err = tx.Exec(ctx, setOrderTotalSQL, o.ID, o.Total); err != nil {
		return fmt.Errorf("setting order total: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete restores stock quantities from the order's lines with a single batch
// update and removes the order; the lines go with it via cascade. Lines whose
// stock batch was deleted in the interim cannot be restored and are skipped.
func (r *OrderRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID int64
	if err = tx.QueryRow(ctx, lockOrderSQL, id).Scan(&orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrOrderNotFound
		}
		return fmt.Errorf("locking order %d: %w", id, err)
	}

	var total, live int
	if err = tx.QueryRow(ctx, countOrderItemsSQL, id).Scan(&total, &live); err != nil {
		return fmt.Errorf("counting items of order %d: %w", id, err)
	}

	if _, err = tx.Exec(ctx, restoreStockSQL, id); err != nil {
		return fmt.Errorf("restoring stock for order %d: %w", id, err)
	}
	if live < total {
		zctx.From(ctx).Warn("Some order lines reference deleted stock batches, quantities not restored",
			zap.Int64("order_id", id),
			zap.Int("skipped", total-live),
			zap.Int("lines", total),
		)
	}

	if _, err = tx.Exec(ctx, deleteOrderSQL, id); err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListByClient returns the client's orders with their lines using two bulk
// queries rather than one query per order.
func (r *OrderRepository) ListByClient(ctx context.Context, clientID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByClientSQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for client %d: %w", clientID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for client %d: %w", clientID, err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	itemRows, err := r.pool.Query(ctx, listItemsByOrdersSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing order items for client %d: %w", clientID, err)
	}
	items, err := pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing order items for client %d: %w", clientID, err)
	}
	for _, it := range items {
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}

	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(&o.ID, &o.ClientID, &o.Address, &status, &o.Total, &o.Date)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ID, &it.OrderID, &it.StockID, &it.DrugName, &it.Quantity, &it.Price, &it.Total)
	return it, err
}
