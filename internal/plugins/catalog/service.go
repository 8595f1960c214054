package catalog

import (
	"context"
	"net/http"

	"github.com/warningbypass/warningweb/internal/apperror"
)

// CatalogService exposes the product catalog and per-user ownership.
type CatalogService interface {
	List(ctx context.Context) ([]*Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	ListOwned(ctx context.Context, userID string) ([]*OwnedProduct, error)
}

type catalogService struct {
	repo ProductRepository
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo ProductRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) List(ctx context.Context) ([]*Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if products == nil {
		products = []*Product{}
	}
	return products, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if appErr, ok := err.(*apperror.AppError); ok && appErr.Code == http.StatusNotFound {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	return p, nil
}

func (s *catalogService) ListOwned(ctx context.Context, userID string) ([]*OwnedProduct, error) {
	owned, err := s.repo.ListOwned(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if owned == nil {
		owned = []*OwnedProduct{}
	}
	return owned, nil
}
