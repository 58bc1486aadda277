package service

import (
	"context"

	"github.com/fix-it/marketplace/internal/domain"
	"github.com/fix-it/marketplace/internal/repository"
)

// CatalogService serves the browsable marketplace catalog.
type CatalogService struct {
	categories repository.CategoryRepository
	services   repository.ServiceRepository
	handymen   repository.HandymanRepository
	users      repository.UserRepository
	ratings    repository.RatingRepository
}

// CatalogDependencies bundles repositories for the catalog service.
type CatalogDependencies struct {
	CategoryRepo repository.CategoryRepository
	ServiceRepo  repository.ServiceRepository
	HandymanRepo repository.HandymanRepository
	UserRepo     repository.UserRepository
	RatingRepo   repository.RatingRepository
}

// HandymanDetail aggregates everything a provider page shows.
type HandymanDetail struct {
	Profile  *domain.HandymanProfile
	User     *domain.User
	Services []domain.Service
	Ratings  []domain.Rating
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		categories: deps.CategoryRepo,
		services:   deps.ServiceRepo,
		handymen:   deps.HandymanRepo,
		users:      deps.UserRepo,
		ratings:    deps.RatingRepo,
	}
}

// ListCategories returns all active categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.ListActive(ctx)
}

// ListServices returns active services matching the filter.
func (s *CatalogService) ListServices(ctx context.Context, filter repository.ServiceFilter) ([]domain.Service, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.services.ListWithFilter(ctx, filter)
}

// ListHandymen returns verified handymen matching the filter.
func (s *CatalogService) ListHandymen(ctx context.Context, filter repository.HandymanFilter) ([]domain.HandymanProfile, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.handymen.ListWithFilter(ctx, filter)
}

// GetHandyman fetches a provider page: profile, account, services, reviews.
func (s *CatalogService) GetHandyman(ctx context.Context, profileID string) (*HandymanDetail, error) {
	profile, err := s.handymen.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	services, err := s.handymen.ListServices(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.ListByHandyman(ctx, profile.ID, 20)
	if err != nil {
		return nil, err
	}
	return &HandymanDetail{
		Profile:  profile,
		User:     user,
		Services: services,
		Ratings:  ratings,
	}, nil
}
