package catalog

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/gearup/storefront/internal/models"
	"github.com/gearup/storefront/internal/store"
	"golang.org/x/sync/singleflight"
)

type Repository interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, filter store.ProductFilter, page, pageSize int) (*store.OffsetPage, error)
	RelatedProducts(ctx context.Context, category, excludeID string, limit int) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// SQLRepository serves the catalog from Postgres.
type SQLRepository struct {
	DB *sql.DB
}

func (r SQLRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return store.GetProduct(ctx, r.DB, id)
}

func (r SQLRepository) ListProducts(ctx context.Context, filter store.ProductFilter, page, pageSize int) (*store.OffsetPage, error) {
	return store.ListProducts(ctx, r.DB, filter, page, pageSize)
}

func (r SQLRepository) RelatedProducts(ctx context.Context, category, excludeID string, limit int) ([]models.Product, error) {
	return store.RelatedProducts(ctx, r.DB, category, excludeID, limit)
}

func (r SQLRepository) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	return store.CreateProduct(ctx, r.DB, p)
}

func (r SQLRepository) UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	return store.UpdateProduct(ctx, r.DB, p)
}

func (r SQLRepository) DeleteProduct(ctx context.Context, id string) error {
	return store.DeleteProduct(ctx, r.DB, id)
}

// Service reads products through a cache and invalidates it on writes.
// Cache failures are logged and fall through to the repository.
type Service struct {
	repo   Repository
	cache  Cache
	logger *log.Logger
	sfg    singleflight.Group
}

func NewService(repo Repository, cache Cache, logger *log.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

func (s *Service) Product(ctx context.Context, id string) (*models.Product, error) {
	key := productKey(id)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		var cached models.Product
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Printf("cache get %s: %v", key, err)
		}

		product, err := s.repo.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, product); err != nil {
			s.logger.Printf("cache set %s: %v", key, err)
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Product), nil
}

func (s *Service) Related(ctx context.Context, category, excludeID string) ([]models.Product, error) {
	category = store.NormalizeCategory(category)
	if category == "" {
		return nil, models.NewValidationError("category is required", "category")
	}

	key := relatedKey(category, excludeID)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		var cached []models.Product
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Printf("cache get %s: %v", key, err)
		}

		products, err := s.repo.RelatedProducts(ctx, category, excludeID, store.RelatedLimit)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, products); err != nil {
			s.logger.Printf("cache set %s: %v", key, err)
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Product), nil
}

func (s *Service) List(ctx context.Context, filter store.ProductFilter, page, pageSize int) (*store.OffsetPage, error) {
	return s.repo.ListProducts(ctx, filter, page, pageSize)
}

func (s *Service) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	product, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, product.ID)
	return product, nil
}

func (s *Service) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	product, err := s.repo.UpdateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, product.ID)
	return product, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, productKey(id)); err != nil {
		s.logger.Printf("cache invalidate product %s: %v", id, err)
	}
	if err := s.cache.DeletePrefix(ctx, relatedPrefix); err != nil {
		s.logger.Printf("cache invalidate related: %v", err)
	}
}
