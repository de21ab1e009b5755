package httpapi

import (
	"net/http"

	"github.com/gearup/storefront/internal/models"
)

// POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	id := IdentityFrom(r.Context())

	var order models.Order
	if err := decodeJSON(w, r, &order); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	stored, err := h.Orders.Submit(r.Context(), id.UID, &order, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stored)
}

// GET /api/orders
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	id := IdentityFrom(r.Context())
	status := models.OrderStatus(r.URL.Query().Get("status"))

	orders, err := h.Orders.ListForUser(r.Context(), id.UID, status)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}
