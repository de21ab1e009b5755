package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gearup/storefront/internal/admin"
	"github.com/gearup/storefront/internal/invoice"
	"github.com/gearup/storefront/internal/models"
	"github.com/gearup/storefront/internal/store"
)

// GET /api/admin/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Users.Stats(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GET /api/admin/orders
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.OrderFilter{
		Query:  strings.TrimSpace(q.Get("q")),
		Status: models.OrderStatus(q.Get("status")),
	}

	page, err := h.Orders.List(r.Context(), filter, q.Get("cursor"), queryInt(r, "limit"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GET /api/admin/orders/{id}
func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

type statusRequest struct {
	Status string `json:"status"`
}

// PATCH /api/admin/orders/{id}/status
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), models.OrderStatus(req.Status))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// DELETE /api/admin/orders/{id}
func (h *Handler) AdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/admin/orders/{id}/invoice
func (h *Handler) AdminOrderInvoice(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	pdf, err := invoice.Render(order, h.Invoice)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	brand := h.Invoice.Brand
	if brand == "" {
		brand = "GearUp"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.FileName(brand, order.ID)))
	w.WriteHeader(http.StatusOK)
	if _, err := bytes.NewReader(pdf).WriteTo(w); err != nil {
		h.Logger.Printf("write invoice %s: %v", order.ID, err)
	}
}

// GET /api/admin/products
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
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

// POST /api/admin/products
func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := decodeJSON(w, r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p.ID = ""

	product, err := h.Catalog.Create(r.Context(), &p)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// PUT /api/admin/products/{id}
func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := decodeJSON(w, r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p.ID = chi.URLParam(r, "id")

	product, err := h.Catalog.Update(r.Context(), &p)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// DELETE /api/admin/products/{id}
func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/admin/users
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.Users.List(r.Context(), queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GET /api/admin/users/count
func (h *Handler) AdminCountUsers(w http.ResponseWriter, r *http.Request) {
	n, err := h.Users.Count(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// POST /api/admin/users
func (h *Handler) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req admin.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Users.Create(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	DisplayName string      `json:"displayName"`
	Role        models.Role `json:"role"`
}

// PUT /api/admin/users/{id}
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Users.Update(r.Context(), chi.URLParam(r, "id"), req.DisplayName, req.Role)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PATCH /api/admin/users/{id}/status
func (h *Handler) AdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Users.SetStatus(r.Context(), chi.URLParam(r, "id"), models.UserStatus(req.Status))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DELETE /api/admin/users/{id}
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
