package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gearup/storefront/internal/models"
	"github.com/gearup/storefront/internal/store"
)

func productFilter(r *http.Request) (store.ProductFilter, bool) {
	q := r.URL.Query()
	filter := store.ProductFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
	}
	if raw := q.Get("maxPrice"); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, false
		}
		filter.MaxPrice = &maxPrice
	}
	return filter, true
}

// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, ok := productFilter(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid maxPrice")
		return
	}

	page, err := h.Catalog.List(r.Context(), filter, queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// GET /api/product/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.Catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// GET /api/products/related
func (h *Handler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.Catalog.Related(r.Context(), q.Get("category"), q.Get("exclude"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	respondJSON(w, http.StatusOK, products)
}
