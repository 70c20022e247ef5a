package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/Jnyame21/aivise-health/internal/domain/client"
)

// LineRequest is one requested line in a placement: a stock batch and how many
// units of it to order.
type LineRequest struct {
	StockID  int64
	Quantity int
}

// PlaceOrderRequest holds the input for placing an order. Address is optional;
// when empty the client's profile address is used.
type PlaceOrderRequest struct {
	ClientID int64
	Address  string
	Items    []LineRequest
}

// Service encapsulates the order ledger business logic.
type Service struct {
	clients client.Repository
	orders  Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(clients client.Repository, orders Repository) *Service {
	return &Service{
		clients: clients,
		orders:  orders,
	}
}

// PlaceOrder validates the requested lines, resolves the client's delivery
// address, and delegates to the repository for the atomic placement. Lines
// with zero quantity are skipped, lines naming the same stock batch are
// merged, and a request left with no effective lines is rejected. On success
// the returned order carries the persisted IDs, the
// per-line price snapshots, and the computed total.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// Duplicate references to the same stock batch are merged into one line:
	// the repository decrements and restores per line, and split lines would
	// double-count the same batch.
	items := make([]Item, 0, len(req.Items))
	index := make(map[int64]int, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity < 0 {
			return nil, &InvalidQuantityError{StockID: line.StockID}
		}
		if line.Quantity == 0 {
			continue
		}
		if i, ok := index[line.StockID]; ok {
			items[i].Quantity += line.Quantity
			continue
		}
		id := line.StockID
		index[line.StockID] = len(items)
		items = append(items, Item{StockID: &id, Quantity: line.Quantity})
	}
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	cl, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, errors.Wrapf(err, "get client %d", req.ClientID)
	}

	address := req.Address
	if address == "" {
		address = cl.Address
	}

	o := &Order{
		ClientID: cl.ID,
		Address:  address,
		Status:   StatusProcessing,
		Date:     time.Now(),
		Items:    items,
	}
	if err := s.orders.Place(ctx, o); err != nil {
		return nil, errors.Wrap(err, "place order")
	}

	return o, nil
}

// DeleteOrder cancels an order: stock quantities are restored from the line
// snapshots and the order is removed with its lines.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return errors.Wrapf(err, "delete order %d", id)
	}
	return nil
}

// ListOrders returns the client's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, clientID int64) ([]Order, error) {
	orders, err := s.orders.ListByClient(ctx, clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for client %d", clientID)
	}
	return orders, nil
}
