package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gearup/storefront/internal/admin"
	"github.com/gearup/storefront/internal/auth"
	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/invoice"
	"github.com/gearup/storefront/internal/models"
	"github.com/gearup/storefront/internal/store"
)

type OrderService interface {
	Submit(ctx context.Context, uid string, order *models.Order, idempotencyKey string) (*models.Order, error)
	ListForUser(ctx context.Context, uid string, status models.OrderStatus) ([]models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter store.OrderFilter, cursor string, limit int) (*store.CursorPage, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}

type CatalogService interface {
	Product(ctx context.Context, id string) (*models.Product, error)
	Related(ctx context.Context, category, excludeID string) ([]models.Product, error)
	List(ctx context.Context, filter store.ProductFilter, page, pageSize int) (*store.OffsetPage, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

type UserService interface {
	List(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
	Create(ctx context.Context, req admin.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, id, displayName string, role models.Role) (*models.User, error)
	SetStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type Uploader interface {
	Upload(ctx context.Context, image string) (string, error)
}

// Handler serves the storefront API. Every collaborator is required.
type Handler struct {
	Auth    auth.Verifier
	Orders  OrderService
	Catalog CatalogService
	Users   UserService
	Images  Uploader
	Invoice invoice.Options
	Logger  *log.Logger

	SessionTTL    time.Duration
	SecureCookies bool
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "storefront"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to status codes. Anything
// unrecognised is a server error.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case models.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.Logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
