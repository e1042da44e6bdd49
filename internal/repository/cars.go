package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/car-ratings/internal/domain"
)

// CarsRepository provides persistence helpers for car entities.
type CarsRepository struct {
	pool *pgxpool.Pool
}

const carColumns = `id, make, model, created_at`

// CarCreateParams bundles the fields required to create a car.
type CarCreateParams struct {
	Make  string
	Model string
}

// Create inserts a new car. A car with the same make and model already present
// yields ErrDuplicate and leaves the table untouched.
func (r *CarsRepository) Create(ctx context.Context, params CarCreateParams) (domain.Car, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Car{}, fmt.Errorf("generate car id: %w", err)
	}

	query := fmt.Sprintf(`
        INSERT INTO cars (id, make, model)
        VALUES ($1,$2,$3)
        ON CONFLICT ON CONSTRAINT cars_make_model_key DO NOTHING
        RETURNING %s
    `, carColumns)

	car, err := scanCar(r.pool.QueryRow(ctx, query, id.String(), params.Make, params.Model))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Car{}, ErrDuplicate
		}
		return domain.Car{}, translatePgError(err)
	}
	return car, nil
}

// GetByID fetches a car by its identifier.
func (r *CarsRepository) GetByID(ctx context.Context, id string) (domain.Car, error) {
	query := fmt.Sprintf(`SELECT %s FROM cars WHERE id = $1`, carColumns)
	car, err := scanCar(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Car{}, ErrNotFound
		}
		return domain.Car{}, err
	}
	return car, nil
}

// Delete removes a car together with its ratings.
func (r *CarsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored cars.
func (r *CarsRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cars`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cars: %w", err)
	}
	return n, nil
}

func scanCar(row pgx.Row) (domain.Car, error) {
	var car domain.Car
	err := row.Scan(&car.ID, &car.Make, &car.Model, &car.CreatedAt)
	if err != nil {
		return domain.Car{}, err
	}
	return car, nil
}
