package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Clark-Hu/car-ratings/internal/domain"
	"github.com/Clark-Hu/car-ratings/internal/repository"
)

// RatingStore persists ratings. *repository.RatingsRepository satisfies it.
type RatingStore interface {
	Create(ctx context.Context, params repository.RatingCreateParams) (domain.Rating, error)
}

// CreateRatingInput is the payload accepted by CreateRating.
type CreateRatingInput struct {
	CarID string `label:"car_id" validate:"required,uuid"`
	Value int    `label:"rating" validate:"gte=1,lte=5"`
}

// Recorder records ratings against existing cars.
type Recorder struct {
	ratings  RatingStore
	validate *validator.Validate
	logger   *zap.Logger
}

func NewRecorder(ratings RatingStore, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		ratings:  ratings,
		validate: newValidate(),
		logger:   logger.Named("recorder"),
	}
}

// CreateRating stores a rating. Values outside [1,5] and references to cars
// that do not exist fail with ErrInvalidRating and are never persisted.
func (r *Recorder) CreateRating(ctx context.Context, in CreateRatingInput) (domain.Rating, error) {
	if err := checkInput(r.validate, ErrInvalidRating, in); err != nil {
		return domain.Rating{}, err
	}

	rating, err := r.ratings.Create(ctx, repository.RatingCreateParams{CarID: in.CarID, Value: in.Value})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidReference):
			return domain.Rating{}, &InputError{
				Kind:   fmt.Errorf("%w: %w", ErrInvalidRating, ErrCarNotFound),
				Fields: map[string]string{"car_id": "must reference an existing car"},
			}
		case errors.Is(err, repository.ErrConstraint):
			return domain.Rating{}, &InputError{
				Kind:   ErrInvalidRating,
				Fields: map[string]string{"rating": fmt.Sprintf("must be between %d and %d", domain.MinRating, domain.MaxRating)},
			}
		}
		return domain.Rating{}, fmt.Errorf("create rating: %w", err)
	}

	r.logger.Debug("rating recorded",
		zap.String("rating_id", rating.ID),
		zap.String("car_id", rating.CarID),
		zap.Int("rating", rating.Value),
	)
	return rating, nil
}
