package domain

import "time"

// Accepted rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// Rating is a single 1-5 score recorded against a car.
type Rating struct {
	ID        string
	CarID     string
	Value     int
	CreatedAt time.Time
}
