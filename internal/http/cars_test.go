package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Clark-Hu/car-ratings/internal/config"
	"github.com/Clark-Hu/car-ratings/internal/domain"
	"github.com/Clark-Hu/car-ratings/internal/service"
)

// staticAggregates serves fixed aggregates without a database.
type staticAggregates struct {
	averages []domain.CarWithAverage
}

func (s staticAggregates) AveragesByCar(context.Context) ([]domain.CarWithAverage, error) {
	return s.averages, nil
}

func (s staticAggregates) CountsByCar(context.Context, int) ([]domain.CarPopularity, error) {
	return []domain.CarPopularity{}, nil
}

func TestHandleListCars_ReturnsExactMean(t *testing.T) {
	mean := (1.0 + 1.0 + 2.0) / 3.0
	srv := New(config.Config{}, nil, Services{
		Queries: service.NewQueries(staticAggregates{averages: []domain.CarWithAverage{
			{Car: domain.Car{ID: "a", Make: "Honda", Model: "Civic"}, Average: &mean},
			{Car: domain.Car{ID: "b", Make: "Honda", Model: "Accord"}},
		}}, 0),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/cars/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := `[{"id":"a","make":"Honda","model":"Civic","avg_rating":1.3333333333333333},` +
		`{"id":"b","make":"Honda","model":"Accord","avg_rating":null}]`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"limit=", 0, false},
		{"limit=5", 5, false},
		{"limit=%205%20", 5, false},
		{"limit=0", 0, true},
		{"limit=-1", 0, true},
		{"limit=ten", 0, true},
		{"limit=1.5", 0, true},
	}
	for _, tt := range tests {
		values, err := url.ParseQuery(tt.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		got, err := parseLimit(values)
		if tt.wantErr {
			if !errors.Is(err, errBadLimit) {
				t.Fatalf("parseLimit(%q) err = %v, want errBadLimit", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseLimit(%q) unexpected error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("parseLimit(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
