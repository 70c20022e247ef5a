// Package api exposes the pharmacy HTTP surface: drug catalog reads and the
// authenticated order ledger operations.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Jnyame21/aivise-health/internal/domain/auth"
	"github.com/Jnyame21/aivise-health/internal/domain/catalog"
	"github.com/Jnyame21/aivise-health/internal/domain/order"
)

// Handler implements the HTTP handlers, delegating business logic to the
// order service and the catalog repository.
type Handler struct {
	orders  *order.Service
	catalog catalog.Repository

	ordersPlaced    metric.Int64Counter
	ordersCancelled metric.Int64Counter
}

// NewHandler constructs a Handler with the required domain dependencies and
// registers its metric instruments on the given meter provider.
func NewHandler(
	orders *order.Service,
	cat catalog.Repository,
	mp metric.MeterProvider,
) (*Handler, error) {
	meter := mp.Meter("aivise.orders")

	placed, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders successfully placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.placed counter")
	}
	cancelled, err := meter.Int64Counter("orders.cancelled",
		metric.WithDescription("Orders cancelled by clients"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.cancelled counter")
	}

	return &Handler{
		orders:          orders,
		catalog:         cat,
		ordersPlaced:    placed,
		ordersCancelled: cancelled,
	}, nil
}

// Routes mounts the API under /api. Order operations require an API key bound
// to a client account; the catalog is readable with any valid key.
func (h *Handler) Routes(keys auth.Repository, pepper []byte) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(APIKeyAuth(keys, pepper))

		r.Get("/drugs", h.listDrugs)
		r.Get("/stocks", h.listStocks)
		r.Get("/stocks/{stockID}", h.getStock)

		r.Group(func(r chi.Router) {
			r.Use(RequireClient)
			r.Post("/orders", h.placeOrder)
			r.Get("/orders", h.listOrders)
			r.Delete("/orders/{orderID}", h.deleteOrder)
		})
	})
	return r
}

// errorResponse is the uniform failure payload.
type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeInternalError logs the cause with full detail and responds with a
// generic message that leaks nothing to the caller.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
