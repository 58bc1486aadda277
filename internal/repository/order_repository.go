package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fix-it/marketplace/internal/domain"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerID    *string
	HandymanID    *string
	Statuses      []domain.OrderStatus
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	Limit         int
	Offset        int
}

// OrderRepository manages order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListWithFilter(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository builds the repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderSelect = `
        SELECT id, external_key, customer_id, handyman_id, service_id, status, description, address,
            scheduled_date, budget, actual_price, cancel_reason, created_at, updated_at, completed_at
        FROM orders`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (external_key, customer_id, handyman_id, service_id, status, description,
            address, scheduled_date, budget)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		order.ExternalKey,
		order.CustomerID,
		order.HandymanID,
		order.ServiceID,
		order.Status,
		order.Description,
		order.Address,
		order.ScheduledDate,
		order.Budget,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	const query = `
        UPDATE orders SET status=$1, description=$2, address=$3, scheduled_date=$4, budget=$5,
            actual_price=$6, cancel_reason=$7, completed_at=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		order.Status,
		order.Description,
		order.Address,
		order.ScheduledDate,
		order.Budget,
		order.ActualPrice,
		order.CancelReason,
		order.CompletedAt,
		order.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const query = orderSelect + ` WHERE id=$1`
	var order domain.Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.ExternalKey,
		&order.CustomerID,
		&order.HandymanID,
		&order.ServiceID,
		&order.Status,
		&order.Description,
		&order.Address,
		&order.ScheduledDate,
		&order.Budget,
		&order.ActualPrice,
		&order.CancelReason,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListWithFilter(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, "customer_id=$"+strconv.Itoa(len(args)))
	}
	if filter.HandymanID != nil {
		args = append(args, *filter.HandymanID)
		clauses = append(clauses, "handyman_id=$"+strconv.Itoa(len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			args = append(args, status)
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.ScheduledFrom != nil {
		args = append(args, *filter.ScheduledFrom)
		clauses = append(clauses, "scheduled_date >= $"+strconv.Itoa(len(args)))
	}
	if filter.ScheduledTo != nil {
		args = append(args, *filter.ScheduledTo)
		clauses = append(clauses, "scheduled_date <= $"+strconv.Itoa(len(args)))
	}

	query := orderSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
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

	var out []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.ExternalKey,
			&order.CustomerID,
			&order.HandymanID,
			&order.ServiceID,
			&order.Status,
			&order.Description,
			&order.Address,
			&order.ScheduledDate,
			&order.Budget,
			&order.ActualPrice,
			&order.CancelReason,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.CompletedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}
