package domain

import "time"

// Car is a make/model pair confirmed to exist by the vehicle lookup service.
type Car struct {
	ID        string
	Make      string
	Model     string
	CreatedAt time.Time
}

// CarWithAverage pairs a car with the mean of its ratings. Average is nil
// when the car has not been rated yet.
type CarWithAverage struct {
	Car
	Average *float64
}

// CarPopularity pairs a car with the number of ratings it received.
type CarPopularity struct {
	Car
	RatesNumber int64
}
