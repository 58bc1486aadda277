package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fix-it/marketplace/internal/domain"
)

// HandymanFilter narrows handyman listings.
type HandymanFilter struct {
	ServiceID     *string
	City          *string
	MinRating     *float64
	AvailableOnly bool
	Limit         int
	Offset        int
}

// HandymanRepository manages handyman profile persistence.
type HandymanRepository interface {
	Create(ctx context.Context, profile *domain.HandymanProfile) error
	Update(ctx context.Context, profile *domain.HandymanProfile) error
	GetByID(ctx context.Context, id string) (*domain.HandymanProfile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.HandymanProfile, error)
	ListWithFilter(ctx context.Context, filter HandymanFilter) ([]domain.HandymanProfile, error)
	ListServices(ctx context.Context, profileID string) ([]domain.Service, error)
	OffersService(ctx context.Context, profileID, serviceID string) (bool, error)
}

type handymanRepository struct {
	pool *pgxpool.Pool
}

// NewHandymanRepository builds the repository.
func NewHandymanRepository(pool *pgxpool.Pool) HandymanRepository {
	return &handymanRepository{pool: pool}
}

const handymanSelect = `
        SELECT id, user_id, bio, hourly_rate, rating, review_count, completed_orders, is_available,
            verification_status, created_at, updated_at
        FROM handyman_profiles`

func (r *handymanRepository) Create(ctx context.Context, profile *domain.HandymanProfile) error {
	const query = `
        INSERT INTO handyman_profiles (user_id, bio, hourly_rate, is_available, verification_status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, rating, review_count, completed_orders, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.Bio,
		profile.HourlyRate,
		profile.IsAvailable,
		profile.Verification,
	).Scan(&profile.ID, &profile.Rating, &profile.ReviewCount, &profile.CompletedOrders, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *handymanRepository) Update(ctx context.Context, profile *domain.HandymanProfile) error {
	const query = `
        UPDATE handyman_profiles SET bio=$1, hourly_rate=$2, rating=$3, review_count=$4,
            completed_orders=$5, is_available=$6, verification_status=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		profile.Bio,
		profile.HourlyRate,
		profile.Rating,
		profile.ReviewCount,
		profile.CompletedOrders,
		profile.IsAvailable,
		profile.Verification,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *handymanRepository) GetByID(ctx context.Context, id string) (*domain.HandymanProfile, error) {
	const query = handymanSelect + ` WHERE id=$1`
	return r.scanOne(ctx, query, id)
}

func (r *handymanRepository) GetByUserID(ctx context.Context, userID string) (*domain.HandymanProfile, error) {
	const query = handymanSelect + ` WHERE user_id=$1`
	return r.scanOne(ctx, query, userID)
}

func (r *handymanRepository) ListWithFilter(ctx context.Context, filter HandymanFilter) ([]domain.HandymanProfile, error) {
	var (
		clauses = []string{"verification_status='VERIFIED'"}
		args    []any
	)
	if filter.ServiceID != nil {
		args = append(args, *filter.ServiceID)
		clauses = append(clauses, "id IN (SELECT handyman_id FROM handyman_services WHERE service_id=$"+strconv.Itoa(len(args))+")")
	}
	if filter.City != nil {
		args = append(args, *filter.City)
		clauses = append(clauses, "user_id IN (SELECT id FROM users WHERE city=$"+strconv.Itoa(len(args))+")")
	}
	if filter.MinRating != nil {
		args = append(args, *filter.MinRating)
		clauses = append(clauses, "rating >= $"+strconv.Itoa(len(args)))
	}
	if filter.AvailableOnly {
		clauses = append(clauses, "is_available")
	}

	query := handymanSelect + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY rating DESC, review_count DESC"
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

	var out []domain.HandymanProfile
	for rows.Next() {
		profile, err := scanHandyman(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *profile)
	}
	return out, rows.Err()
}

func (r *handymanRepository) ListServices(ctx context.Context, profileID string) ([]domain.Service, error) {
	const query = `
        SELECT s.id, s.category_id, s.name, s.description, s.base_price, s.estimated_minutes, s.is_active,
            s.created_at, s.updated_at
        FROM services s
        JOIN handyman_services hs ON hs.service_id = s.id
        WHERE hs.handyman_id=$1 AND s.is_active
        ORDER BY s.name`
	rows, err := r.pool.Query(ctx, query, profileID)
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

func (r *handymanRepository) OffersService(ctx context.Context, profileID, serviceID string) (bool, error) {
	const query = `
        SELECT EXISTS (SELECT 1 FROM handyman_services WHERE handyman_id=$1 AND service_id=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, profileID, serviceID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *handymanRepository) scanOne(ctx context.Context, query string, arg any) (*domain.HandymanProfile, error) {
	return scanHandyman(r.pool.QueryRow(ctx, query, arg))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHandyman(row rowScanner) (*domain.HandymanProfile, error) {
	var profile domain.HandymanProfile
	if err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Bio,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.ReviewCount,
		&profile.CompletedOrders,
		&profile.IsAvailable,
		&profile.Verification,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
