package domain

import "time"

// Category represents a high-level grouping of services.
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Icon        *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Service is a bookable offering within a category.
type Service struct {
	ID               string
	CategoryID       string
	Name             string
	Description      string
	BasePrice        *float64
	EstimatedMinutes *int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
