package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Jnyame21/aivise-health/internal/domain/catalog"
)

type drugResponse struct {
	ID                   int64    `json:"id"`
	Name                 string   `json:"name"`
	GenericName          string   `json:"generic_name,omitempty"`
	Brand                string   `json:"brand,omitempty"`
	Description          string   `json:"description,omitempty"`
	DosageForms          []string `json:"dosage_forms,omitempty"`
	Routes               []string `json:"routes,omitempty"`
	PharmClasses         []string `json:"pharm_classes,omitempty"`
	ActiveIngredients    []string `json:"active_ingredients,omitempty"`
	Manufacturer         string   `json:"manufacturer,omitempty"`
	PrescriptionRequired bool     `json:"prescription_required"`
}

type stockResponse struct {
	ID                   int64           `json:"id"`
	DrugID               int64           `json:"drug_id"`
	DrugName             string          `json:"drug_name"`
	BatchNumber          string          `json:"batch_number"`
	Name                 string          `json:"name,omitempty"`
	Strength             string          `json:"strength,omitempty"`
	Quantity             int             `json:"quantity"`
	Price                decimal.Decimal `json:"price"`
	ExpiryDate           string          `json:"expiry_date"`
	PrescriptionRequired bool            `json:"prescription_required"`
}

// listDrugs returns every drug in the catalog.
func (h *Handler) listDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.catalog.ListDrugs(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]drugResponse, len(drugs))
	for i, d := range drugs {
		out[i] = drugResponse{
			ID:                   d.ID,
			Name:                 d.Name,
			GenericName:          d.GenericName,
			Brand:                d.Brand,
			Description:          d.Description,
			DosageForms:          d.DosageForms,
			Routes:               d.Routes,
			PharmClasses:         d.PharmClasses,
			ActiveIngredients:    d.ActiveIngredients,
			Manufacturer:         d.Manufacturer,
			PrescriptionRequired: d.PrescriptionRequired,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// listStocks returns every purchasable stock batch with its drug identity.
func (h *Handler) listStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.catalog.ListStocks(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]stockResponse, len(stocks))
	for i, st := range stocks {
		out[i] = toStockResponse(st)
	}
	writeJSON(w, http.StatusOK, out)
}

// getStock returns a single stock batch.
func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "stockID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	st, err := h.catalog.GetStock(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrStockNotFound) {
			writeError(w, http.StatusNotFound, "stock item not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockResponse(*st))
}

func toStockResponse(st catalog.Stock) stockResponse {
	return stockResponse{
		ID:                   st.ID,
		DrugID:               st.DrugID,
		DrugName:             st.DrugName,
		BatchNumber:          st.BatchNumber,
		Name:                 st.Name,
		Strength:             st.Strength,
		Quantity:             st.Quantity,
		Price:                st.Price,
		ExpiryDate:           st.ExpiryDate.Format("2006-01-02"),
		PrescriptionRequired: st.PrescriptionRequired,
	}
}
