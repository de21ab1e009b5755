package orders

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/gearup/storefront/internal/events"
	"github.com/gearup/storefront/internal/models"
	"github.com/gearup/storefront/internal/store"
)

type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, bool, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, status models.OrderStatus) ([]models.Order, error)
	ListOrdersCursor(ctx context.Context, filter store.OrderFilter, cursor string, limit int) (*store.CursorPage, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, now time.Time) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type SQLRepository struct {
	DB *sql.DB
}

func (r SQLRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, bool, error) {
	return store.CreateOrder(ctx, r.DB, order)
}

func (r SQLRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return store.GetOrder(ctx, r.DB, id)
}

func (r SQLRepository) ListOrdersByUser(ctx context.Context, userID string, status models.OrderStatus) ([]models.Order, error) {
	return store.ListOrdersByUser(ctx, r.DB, userID, status)
}

func (r SQLRepository) ListOrdersCursor(ctx context.Context, filter store.OrderFilter, cursor string, limit int) (*store.CursorPage, error) {
	return store.ListOrdersCursor(ctx, r.DB, filter, cursor, limit)
}

func (r SQLRepository) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, now time.Time) (*models.Order, error) {
	return store.UpdateOrderStatus(ctx, r.DB, id, status, now)
}

func (r SQLRepository) DeleteOrder(ctx context.Context, id string) error {
	return store.DeleteOrder(ctx, r.DB, id)
}

// Service owns order submission and back-office order changes.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time

	inflight sync.WaitGroup
}

func NewService(repo Repository, publisher events.Publisher, logger *log.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// Submit persists an order for uid. Status, owner and timestamps are always
// assigned here, whatever the payload carried. idempotencyKey may be empty.
func (s *Service) Submit(ctx context.Context, uid string, order *models.Order, idempotencyKey string) (*models.Order, error) {
	now := s.now().UTC()
	order.ID = ""
	order.UserID = uid
	order.Status = models.OrderStatusPending
	order.CreatedAt = now
	order.UpdatedAt = now
	order.IdempotencyKey = idempotencyKey
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}

	stored, created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Printf("order %s created for user %s (total %s)", stored.ID, uid, stored.Total)
		s.publishCreated(stored)
	} else {
		s.logger.Printf("order %s replayed for user %s", stored.ID, uid)
	}
	return stored, nil
}

func (s *Service) publishCreated(order *models.Order) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.publisher.PublishOrderCreated(context.Background(), order); err != nil {
			s.logger.Printf("publish order.created for %s: %v", order.ID, err)
		}
	}()
}

// Wait blocks until pending event publishes finish.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) ListForUser(ctx context.Context, uid string, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, models.NewValidationError("unknown order status", "status")
	}
	return s.repo.ListOrdersByUser(ctx, uid, status)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) List(ctx context.Context, filter store.OrderFilter, cursor string, limit int) (*store.CursorPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.NewValidationError("unknown order status", "status")
	}
	return s.repo.ListOrdersCursor(ctx, filter, cursor, limit)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	order, err := s.repo.UpdateOrderStatus(ctx, id, status, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order %s moved to %s", id, status)
	return order, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.logger.Printf("order %s deleted", id)
	return nil
}
