package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/car-ratings/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate indicates a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("repository: duplicate")
	// ErrInvalidReference indicates a foreign key points at a missing row.
	ErrInvalidReference = errors.New("repository: invalid reference")
	// ErrConstraint indicates a check constraint rejected the write.
	ErrConstraint = errors.New("repository: constraint violation")
)

// Postgres SQLSTATE codes mapped to repository errors.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Cars    *CarsRepository
	Ratings *RatingsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Cars:    &CarsRepository{pool: pool},
		Ratings: &RatingsRepository{pool: pool},
	}
}

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeForeignKeyViolation:
		return ErrInvalidReference
	case codeUniqueViolation:
		return ErrDuplicate
	case codeCheckViolation:
		return ErrConstraint
	}
	return err
}
