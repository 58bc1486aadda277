package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fix-it/marketplace/internal/domain"
)

// ServiceFilter narrows service listings.
type ServiceFilter struct {
	CategoryID *string
	Search     *string
	Limit      int
	Offset     int
}

// ServiceRepository manages bookable service persistence.
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	ListWithFilter(ctx context.Context, filter ServiceFilter) ([]domain.Service, error)
}

type serviceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository builds the repository.
func NewServiceRepository(pool *pgxpool.Pool) ServiceRepository {
	return &serviceRepository{pool: pool}
}

const serviceSelect = `
        SELECT id, category_id, name, description, base_price, estimated_minutes, is_active, created_at, updated_at
        FROM services`

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	const query = serviceSelect + ` WHERE id=$1`
	var svc domain.Service
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&svc.ID,
		&svc.CategoryID,
		&svc.Name,
		&svc.Description,
		&svc.BasePrice,
		&svc.EstimatedMinutes,
		&svc.IsActive,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *serviceRepository) ListWithFilter(ctx context.Context, filter ServiceFilter) ([]domain.Service, error) {
	var (
		clauses = []string{"is_active"}
		args    []any
	)
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, "category_id=$"+strconv.Itoa(len(args)))
	}
	if filter.Search != nil {
		args = append(args, "%"+*filter.Search+"%")
		clauses = append(clauses, "(name ILIKE $"+strconv.Itoa(len(args))+" OR description ILIKE $"+strconv.Itoa(len(args))+")")
	}

	query := serviceSelect + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Service
	for rows.Next() {
		var svc domain.Service
		if err := rows.Scan(
			&svc.ID,
			&svc.CategoryID,
			&svc.Name,
			&svc.Description,
			&svc.BasePrice,
			&svc.EstimatedMinutes,
			&svc.IsActive,
			&svc.CreatedAt,
			&svc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}
