package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jnyame21/aivise-health/internal/domain/order"
)

type orderLineRequest struct {
	StockID  int64 `json:"stock_id"`
	Quantity int   `json:"quantity"`
}

type placeOrderRequest struct {
	Address string             `json:"address"`
	Items   []orderLineRequest `json:"items"`
}

type orderItemResponse struct {
	ID         int64           `json:"id"`
	StockID    *int64          `json:"stock_id"`
	DrugName   string          `json:"drug_name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type orderResponse struct {
	ID         int64               `json:"id"`
	Address    string              `json:"address"`
	Status     string              `json:"status"`
	Date       string              `json:"date"`
	TotalPrice decimal.Decimal     `json:"total_price"`
	Items      []orderItemResponse `json:"items"`
}

// placeOrder converts the request into a domain placement, delegates to the
// order service, and renders the populated order.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, _ := ClientFromContext(ctx)

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]order.LineRequest, len(req.Items))
	for i, it := range req.Items {
		lines[i] = order.LineRequest{StockID: it.StockID, Quantity: it.Quantity}
	}

	o, err := h.orders.PlaceOrder(ctx, order.PlaceOrderRequest{
		ClientID: clientID,
		Address:  req.Address,
		Items:    lines,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	h.ordersPlaced.Add(ctx, 1)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("order.id", o.ID),
		attribute.Int("order.lines", len(o.Items)),
	)

	writeJSON(w, http.StatusOK, toOrderResponse(*o))
}

// listOrders returns the caller's orders, newest first.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	clientID, _ := ClientFromContext(r.Context())

	orders, err := h.orders.ListOrders(r.Context(), clientID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

// deleteOrder cancels an order, restoring stock quantities.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	h.ordersCancelled.Add(r.Context(), 1)
	w.WriteHeader(http.StatusNoContent)
}

// writeOrderError maps domain placement errors to responses. Business
// failures carry a short message and a 400; everything else is internal.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr  *order.InvalidQuantityError
		snfErr *order.StockNotFoundError
		insErr *order.InsufficientStockError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, order.ErrEmptyItems.Error())
	case errors.As(err, &iqErr):
		writeError(w, http.StatusBadRequest, iqErr.Error())
	case errors.As(err, &snfErr):
		writeError(w, http.StatusBadRequest, snfErr.Error())
	case errors.As(err, &insErr):
		writeError(w, http.StatusBadRequest, insErr.Error())
	default:
		writeInternalError(w, r, err)
	}
}

func toOrderResponse(o order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:         it.ID,
			StockID:    it.StockID,
			DrugName:   it.DrugName,
			Quantity:   it.Quantity,
			Price:      it.Price,
			TotalPrice: it.Total,
		}
	}
	return orderResponse{
		ID:         o.ID,
		Address:    o.Address,
		Status:     string(o.Status),
		Date:       o.Date.Format("2006-01-02"),
		TotalPrice: o.Total,
		Items:      items,
	}
}
