// Package service holds the car registry, rating recorder and query service.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/car-ratings/internal/domain"
	"github.com/Clark-Hu/car-ratings/internal/repository"
	"github.com/Clark-Hu/car-ratings/internal/vpic"
)

// CarStore persists cars. *repository.CarsRepository satisfies it.
type CarStore interface {
	Create(ctx context.Context, params repository.CarCreateParams) (domain.Car, error)
	Delete(ctx context.Context, id string) error
}

// CreateCarInput is the payload accepted by CreateCar.
type CreateCarInput struct {
	Make  string `label:"make" validate:"required,max=30"`
	Model string `label:"model" validate:"required,max=30"`
}

// Registry owns car creation and deletion.
type Registry struct {
	cars      CarStore
	validator vpic.Validator
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewRegistry wires a Registry. A nil logger discards output.
func NewRegistry(cars CarStore, v vpic.Validator, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		cars:      cars,
		validator: v,
		validate:  newValidate(),
		logger:    logger.Named("registry"),
	}
}

// CreateCar stores a car once the vehicle lookup confirms the make/model pair.
// An unconfirmed pair fails with ErrValidationFailed, a lookup that could not
// complete fails with ErrValidatorUnavailable, and an already stored pair fails
// with ErrDuplicateCar. Nothing is written in any of those cases.
func (r *Registry) CreateCar(ctx context.Context, in CreateCarInput) (domain.Car, error) {
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	if err := checkInput(r.validate, ErrInvalidCar, in); err != nil {
		return domain.Car{}, err
	}

	log := r.logger.With(zap.String("make", in.Make), zap.String("model", in.Model))

	outcome, err := r.validator.Exists(ctx, in.Make, in.Model)
	switch outcome {
	case vpic.Confirmed:
	case vpic.NotFound:
		log.Info("vehicle lookup returned no matching model")
		return domain.Car{}, ErrValidationFailed
	default:
		log.Error("vehicle lookup unavailable, rejecting car", zap.Error(err))
		return domain.Car{}, fmt.Errorf("%w: %v", ErrValidatorUnavailable, err)
	}

	car, err := r.cars.Create(ctx, repository.CarCreateParams{Make: in.Make, Model: in.Model})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Info("car already exists")
			return domain.Car{}, ErrDuplicateCar
		}
		return domain.Car{}, fmt.Errorf("create car: %w", err)
	}

	log.Info("car created", zap.String("car_id", car.ID))
	return car, nil
}

// DeleteCar removes a car and its ratings. Unknown and malformed ids both
// yield ErrCarNotFound.
func (r *Registry) DeleteCar(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrCarNotFound
	}
	id = parsed.String()
	if err := r.cars.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCarNotFound
		}
		return fmt.Errorf("delete car: %w", err)
	}
	r.logger.Info("car deleted", zap.String("car_id", id))
	return nil
}
