package service

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/car-ratings/internal/domain"
)

// RatingAggregator derives per-car aggregates from stored ratings.
// *repository.RatingsRepository satisfies it.
type RatingAggregator interface {
	AveragesByCar(ctx context.Context) ([]domain.CarWithAverage, error)
	CountsByCar(ctx context.Context, limit int) ([]domain.CarPopularity, error)
}

// Queries answers the read-side listings.
type Queries struct {
	aggregates   RatingAggregator
	popularLimit int
}

// NewQueries wires Queries. popularLimit caps ListCarsByPopularity when the
// caller passes no limit; zero means unbounded.
func NewQueries(aggregates RatingAggregator, popularLimit int) *Queries {
	return &Queries{aggregates: aggregates, popularLimit: popularLimit}
}

// ListCarsWithAverageRating returns every car with its mean rating, nil for unrated cars.
func (q *Queries) ListCarsWithAverageRating(ctx context.Context) ([]domain.CarWithAverage, error) {
	items, err := q.aggregates.AveragesByCar(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cars with average: %w", err)
	}
	return items, nil
}

// ListCarsByPopularity returns cars ordered by rating count, descending, ties
// broken by ascending id. A limit of zero or less falls back to the configured default.
func (q *Queries) ListCarsByPopularity(ctx context.Context, limit int) ([]domain.CarPopularity, error) {
	if limit <= 0 {
		limit = q.popularLimit
	}
	items, err := q.aggregates.CountsByCar(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list popular cars: %w", err)
	}
	return items, nil
}
