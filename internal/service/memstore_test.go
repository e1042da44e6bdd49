package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/car-ratings/internal/domain"
	"github.com/Clark-Hu/car-ratings/internal/repository"
	"github.com/Clark-Hu/car-ratings/internal/vpic"
)

// memStore mirrors the Postgres schema rules: unique make/model, cascading
// deletes, rating foreign key and range check.
type memStore struct {
	mu      sync.Mutex
	cars    map[string]domain.Car
	ratings map[string]domain.Rating
}

func newMemStore() *memStore {
	return &memStore{cars: map[string]domain.Car{}, ratings: map[string]domain.Rating{}}
}

type memCars struct{ *memStore }

type memRatings struct{ *memStore }

func (s memCars) Create(_ context.Context, p repository.CarCreateParams) (domain.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cars {
		if c.Make == p.Make && c.Model == p.Model {
			return domain.Car{}, repository.ErrDuplicate
		}
	}
	car := domain.Car{ID: uuid.Must(uuid.NewV7()).String(), Make: p.Make, Model: p.Model, CreatedAt: time.Now()}
	s.cars[car.ID] = car
	return car, nil
}

func (s memCars) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cars[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.cars, id)
	for rid, r := range s.ratings {
		if r.CarID == id {
			delete(s.ratings, rid)
		}
	}
	return nil
}

func (s memRatings) Create(_ context.Context, p repository.RatingCreateParams) (domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cars[p.CarID]; !ok {
		return domain.Rating{}, repository.ErrInvalidReference
	}
	if p.Value < domain.MinRating || p.Value > domain.MaxRating {
		return domain.Rating{}, repository.ErrConstraint
	}
	r := domain.Rating{ID: uuid.Must(uuid.NewV7()).String(), CarID: p.CarID, Value: p.Value, CreatedAt: time.Now()}
	s.ratings[r.ID] = r
	return r, nil
}

func (s memRatings) sortedCars() []domain.Car {
	cars := make([]domain.Car, 0, len(s.cars))
	for _, c := range s.cars {
		cars = append(cars, c)
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].ID < cars[j].ID })
	return cars
}

func (s memRatings) AveragesByCar(_ context.Context) ([]domain.CarWithAverage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CarWithAverage, 0, len(s.cars))
	for _, c := range s.sortedCars() {
		item := domain.CarWithAverage{Car: c}
		sum, n := 0, 0
		for _, r := range s.ratings {
			if r.CarID == c.ID {
				sum += r.Value
				n++
			}
		}
		if n > 0 {
			avg := float64(sum) / float64(n)
			item.Average = &avg
		}
		items = append(items, item)
	}
	return items, nil
}

func (s memRatings) CountsByCar(_ context.Context, limit int) ([]domain.CarPopularity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CarPopularity, 0, len(s.cars))
	for _, c := range s.sortedCars() {
		item := domain.CarPopularity{Car: c}
		for _, r := range s.ratings {
			if r.CarID == c.ID {
				item.RatesNumber++
			}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].RatesNumber > items[j].RatesNumber })
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

// stubValidator answers from a fixed make -> models table, or with a fixed outcome.
type stubValidator struct {
	mu      sync.Mutex
	models  map[string][]string
	outcome *vpic.Outcome
	err     error
	calls   int
}

func (v *stubValidator) Exists(_ context.Context, vehicleMake, model string) (vpic.Outcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	if v.outcome != nil {
		return *v.outcome, v.err
	}
	for _, m := range v.models[vehicleMake] {
		if m == model {
			return vpic.Confirmed, nil
		}
	}
	return vpic.NotFound, nil
}
