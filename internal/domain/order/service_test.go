package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jnyame21/aivise-health/internal/domain/client"
)

// --- Mock implementations ---

type mockClientRepo struct {
	byID   map[int64]*client.Client
	getErr error
}

func (m *mockClientRepo) GetByID(_ context.Context, id int64) (*client.Client, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.byID[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	return c, nil
}

type mockOrderRepo struct {
	lastPlaced *Order
	placeErr   error
	deleteErr  error
	deletedID  int64
	orders     []Order
	listErr    error
}

func (m *mockOrderRepo) Place(_ context.Context, o *Order) error {
	m.lastPlaced = o
	return m.placeErr
}

func (m *mockOrderRepo) Delete(_ context.Context, id int64) error {
	m.deletedID = id
	return m.deleteErr
}

func (m *mockOrderRepo) ListByClient(_ context.Context, _ int64) ([]Order, error) {
	return m.orders, m.listErr
}

// --- Helpers ---

func newClientRepo(clients ...client.Client) *mockClientRepo {
	byID := make(map[int64]*client.Client, len(clients))
	for i := range clients {
		byID[clients[i].ID] = &clients[i]
	}
	return &mockClientRepo{byID: byID}
}

func testClient() client.Client {
	return client.Client{
		ID:      7,
		Name:    "Ama Mensah",
		Email:   "ama@example.com",
		Address: "12 Liberation Rd, Accra",
	}
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := NewService(newClientRepo(testClient()), &mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{ClientID: 7})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_AllZeroQuantities(t *testing.T) {
	svc := NewService(newClientRepo(testClient()), &mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Items: []LineRequest{
			{StockID: 1, Quantity: 0},
			{StockID: 2, Quantity: 0},
		},
	})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_NegativeQuantity(t *testing.T) {
	svc := NewService(newClientRepo(testClient()), &mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Items:    []LineRequest{{StockID: 3, Quantity: -1}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, int64(3), iqErr.StockID)
}

func TestPlaceOrder_SkipsZeroQuantityLines(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(newClientRepo(testClient()), repo)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Items: []LineRequest{
			{StockID: 1, Quantity: 2},
			{StockID: 2, Quantity: 0},
			{StockID: 3, Quantity: 1},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, repo.lastPlaced)
	require.Len(t, repo.lastPlaced.Items, 2)
	assert.Equal(t, int64(1), *repo.lastPlaced.Items[0].StockID)
	assert.Equal(t, int64(3), *repo.lastPlaced.Items[1].StockID)
}

func TestPlaceOrder_MergesDuplicateStockLines(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(newClientRepo(testClient()), repo)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Items: []LineRequest{
			{StockID: 1, Quantity: 2},
			{StockID: 3, Quantity: 1},
			{StockID: 1, Quantity: 3},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, repo.lastPlaced)
	require.Len(t, repo.lastPlaced.Items, 2)
	assert.Equal(t, int64(1), *repo.lastPlaced.Items[0].StockID)
	assert.Equal(t, 5, repo.lastPlaced.Items[0].Quantity)
	assert.Equal(t, int64(3), *repo.lastPlaced.Items[1].StockID)
	assert.Equal(t, 1, repo.lastPlaced.Items[1].Quantity)
}

func TestPlaceOrder_DefaultsToClientAddress(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(newClientRepo(testClient()), repo)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Items:    []LineRequest{{StockID: 1, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, "12 Liberation Rd, Accra", repo.lastPlaced.Address)
}

func TestPlaceOrder_ExplicitAddressWins(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(newClientRepo(testClient()), repo)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Address:  "4 Ring Road, Kumasi",
		Items:    []LineRequest{{StockID: 1, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, "4 Ring Road, Kumasi", repo.lastPlaced.Address)
}

func TestPlaceOrder_ClientNotFound(t *testing.T) {
	svc := NewService(newClientRepo(), &mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 99,
		Items:    []LineRequest{{StockID: 1, Quantity: 1}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestPlaceOrder_SetsProcessingStatusAndDate(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(newClientRepo(testClient()), repo)

	before := time.Now()
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Items:    []LineRequest{{StockID: 1, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, repo.lastPlaced.Status)
	assert.False(t, repo.lastPlaced.Date.Before(before))
	assert.Equal(t, int64(7), repo.lastPlaced.ClientID)
}

func TestPlaceOrder_RepositoryError(t *testing.T) {
	svc := NewService(
		newClientRepo(testClient()),
		&mockOrderRepo{placeErr: errors.New("db write failed")},
	)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Items:    []LineRequest{{StockID: 1, Quantity: 1}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "place order")
}

func TestPlaceOrder_RepositoryInsufficientStock(t *testing.T) {
	repo := &mockOrderRepo{placeErr: &InsufficientStockError{
		StockID: 1, Requested: 5, Available: 2,
	}}
	svc := NewService(newClientRepo(testClient()), repo)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ClientID: 7,
		Items:    []LineRequest{{StockID: 1, Quantity: 5}},
	})

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, 5, isErr.Requested)
	assert.Equal(t, 2, isErr.Available)
}

func TestDeleteOrder_NotFound(t *testing.T) {
	svc := NewService(newClientRepo(), &mockOrderRepo{deleteErr: ErrOrderNotFound})

	err := svc.DeleteOrder(context.Background(), 42)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrder_Success(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(newClientRepo(), repo)

	require.NoError(t, svc.DeleteOrder(context.Background(), 42))
	assert.Equal(t, int64(42), repo.deletedID)
}

func TestListOrders(t *testing.T) {
	repo := &mockOrderRepo{orders: []Order{
		{ID: 2, ClientID: 7, Total: decimal.RequireFromString("20.00")},
		{ID: 1, ClientID: 7, Total: decimal.RequireFromString("5.00")},
	}}
	svc := NewService(newClientRepo(), repo)

	orders, err := svc.ListOrders(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].ID)
}
