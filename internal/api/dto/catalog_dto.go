package dto

import (
	"time"

	"github.com/fix-it/marketplace/internal/domain"
	"github.com/fix-it/marketplace/internal/service"
)

// CategoryResponse response shape.
type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Icon        *string `json:"icon,omitempty"`
}

// ServiceResponse response shape.
type ServiceResponse struct {
	ID               string   `json:"id"`
	CategoryID       string   `json:"category_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	BasePrice        *float64 `json:"base_price,omitempty"`
	EstimatedMinutes *int     `json:"estimated_minutes,omitempty"`
}

// HandymanSummary is the listing row for a provider.
type HandymanSummary struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	HourlyRate      float64 `json:"hourly_rate"`
	Rating          float64 `json:"rating"`
	ReviewCount     int     `json:"review_count"`
	CompletedOrders int     `json:"completed_orders"`
	IsAvailable     bool    `json:"is_available"`
}

// RatingResponse is a single review entry.
type RatingResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Score     int       `json:"score"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"created_at"`
}

// HandymanDetailResponse is the provider page payload.
type HandymanDetailResponse struct {
	HandymanSummary
	FullName  string            `json:"full_name"`
	AvatarURL *string           `json:"avatar_url,omitempty"`
	City      *string           `json:"city,omitempty"`
	Bio       string            `json:"bio"`
	Services  []ServiceResponse `json:"services"`
	Ratings   []RatingResponse  `json:"ratings"`
}

// NewCategoryResponse maps a domain category.
func NewCategoryResponse(cat *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          cat.ID,
		Name:        cat.Name,
		Slug:        cat.Slug,
		Description: cat.Description,
		Icon:        cat.Icon,
	}
}

// NewServiceResponse maps a domain service.
func NewServiceResponse(svc *domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:               svc.ID,
		CategoryID:       svc.CategoryID,
		Name:             svc.Name,
		Description:      svc.Description,
		BasePrice:        svc.BasePrice,
		EstimatedMinutes: svc.EstimatedMinutes,
	}
}

// NewHandymanSummary maps a domain profile.
func NewHandymanSummary(profile *domain.HandymanProfile) HandymanSummary {
	return HandymanSummary{
		ID:              profile.ID,
		UserID:          profile.UserID,
		HourlyRate:      profile.HourlyRate,
		Rating:          profile.Rating,
		ReviewCount:     profile.ReviewCount,
		CompletedOrders: profile.CompletedOrders,
		IsAvailable:     profile.IsAvailable,
	}
}

// NewHandymanDetailResponse maps an aggregated provider page.
func NewHandymanDetailResponse(detail *service.HandymanDetail) HandymanDetailResponse {
	out := HandymanDetailResponse{
		HandymanSummary: NewHandymanSummary(detail.Profile),
		FullName:        detail.User.FullName,
		AvatarURL:       detail.User.AvatarURL,
		City:            detail.User.City,
		Bio:             detail.Profile.Bio,
		Services:        make([]ServiceResponse, 0, len(detail.Services)),
		Ratings:         make([]RatingResponse, 0, len(detail.Ratings)),
	}
	for i := range detail.Services {
		out.Services = append(out.Services, NewServiceResponse(&detail.Services[i]))
	}
	for i := range detail.Ratings {
		rating := detail.Ratings[i]
		out.Ratings = append(out.Ratings, RatingResponse{
			ID:        rating.ID,
			OrderID:   rating.OrderID,
			Score:     rating.Score,
			Review:    rating.Review,
			CreatedAt: rating.CreatedAt,
		})
	}
	return out
}
