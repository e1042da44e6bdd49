package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/car-ratings/internal/domain"
)

// RatingsRepository stores ratings and derives the per-car aggregates.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingCreateParams captures the payload required to record a rating.
type RatingCreateParams struct {
	CarID string
	Value int
}

// Create records a rating. A missing car yields ErrInvalidReference and a value
// outside the allowed range yields ErrConstraint.
func (r *RatingsRepository) Create(ctx context.Context, params RatingCreateParams) (domain.Rating, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Rating{}, fmt.Errorf("generate rating id: %w", err)
	}

	const query = `
        INSERT INTO ratings (id, car_id, rating)
        VALUES ($1,$2,$3)
        RETURNING id, car_id, rating, created_at
    `

	var rating domain.Rating
	err = r.pool.QueryRow(ctx, query, id.String(), params.CarID, params.Value).Scan(
		&rating.ID,
		&rating.CarID,
		&rating.Value,
		&rating.CreatedAt,
	)
	if err != nil {
		return domain.Rating{}, translatePgError(err)
	}
	return rating, nil
}

// AveragesByCar returns every car with the mean of its ratings, ordered by id.
// Cars without ratings carry a nil average.
func (r *RatingsRepository) AveragesByCar(ctx context.Context) ([]domain.CarWithAverage, error) {
	const query = `
        SELECT c.id, c.make, c.model, c.created_at, AVG(r.rating)::float8 AS avg_rating
        FROM cars c
        LEFT JOIN ratings r ON r.car_id = c.id
        GROUP BY c.id
        ORDER BY c.id ASC
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("average ratings: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CarWithAverage, 0)
	for rows.Next() {
		var item domain.CarWithAverage
		if err := rows.Scan(&item.ID, &item.Make, &item.Model, &item.CreatedAt, &item.Average); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountsByCar returns every car with its number of ratings, most rated first.
// Equal counts are ordered by ascending id. A limit of zero or less returns all cars.
func (r *RatingsRepository) CountsByCar(ctx context.Context, limit int) ([]domain.CarPopularity, error) {
	const query = `
        SELECT c.id, c.make, c.model, c.created_at, COUNT(r.id) AS rates_number
        FROM cars c
        LEFT JOIN ratings r ON r.car_id = c.id
        GROUP BY c.id
        ORDER BY rates_number DESC, c.id ASC
        LIMIT $1
    `

	var lim *int64
	if limit > 0 {
		v := int64(limit)
		lim = &v
	}

	rows, err := r.pool.Query(ctx, query, lim)
	if err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CarPopularity, 0)
	for rows.Next() {
		var item domain.CarPopularity
		if err := rows.Scan(&item.ID, &item.Make, &item.Model, &item.CreatedAt, &item.RatesNumber); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountForCar returns the number of ratings stored for one car.
func (r *RatingsRepository) CountForCar(ctx context.Context, carID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ratings WHERE car_id = $1`, carID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ratings for car: %w", err)
	}
	return n, nil
}
