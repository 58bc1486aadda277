package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fix-it/marketplace/internal/domain"
)

// RatingRepository manages order rating persistence.
type RatingRepository interface {
	Create(ctx context.Context, rating *domain.Rating) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Rating, error)
	ListByHandyman(ctx context.Context, handymanID string, limit int) ([]domain.Rating, error)
}

type ratingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository builds the repository.
func NewRatingRepository(pool *pgxpool.Pool) RatingRepository {
	return &ratingRepository{pool: pool}
}

func (r *ratingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	const query = `
        INSERT INTO ratings (order_id, handyman_id, customer_id, score, review)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		rating.OrderID,
		rating.HandymanID,
		rating.CustomerID,
		rating.Score,
		rating.Review,
	).Scan(&rating.ID, &rating.CreatedAt)
}

func (r *ratingRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Rating, error) {
	const query = `
        SELECT id, order_id, handyman_id, customer_id, score, review, created_at
        FROM ratings WHERE order_id=$1`
	var rating domain.Rating
	if err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&rating.ID,
		&rating.OrderID,
		&rating.HandymanID,
		&rating.CustomerID,
		&rating.Score,
		&rating.Review,
		&rating.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) ListByHandyman(ctx context.Context, handymanID string, limit int) ([]domain.Rating, error) {
	const query = `
        SELECT id, order_id, handyman_id, customer_id, score, review, created_at
        FROM ratings WHERE handyman_id=$1
        ORDER BY created_at DESC LIMIT $2`
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, query, handymanID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Rating
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(
			&rating.ID,
			&rating.OrderID,
			&rating.HandymanID,
			&rating.CustomerID,
			&rating.Score,
			&rating.Review,
			&rating.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rating)
	}
	return out, rows.Err()
}
