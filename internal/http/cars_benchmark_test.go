package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func BenchmarkHandleCreateRating(b *testing.B) {
	env := buildTestServer(b)

	rec := env.serve(http.MethodPost, "/cars/", `{"make":"Honda","model":"Civic"}`)
	if rec.Code != http.StatusCreated {
		b.Fatalf("create car: status %d", rec.Code)
	}
	car := decodeResponse[carResponse](b, rec)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		payload := []byte(fmt.Sprintf(`{"car_id":%q,"rating":%d}`, car.ID, i%5+1))
		req := httptest.NewRequest(http.MethodPost, "/rate", bytes.NewReader(payload))
		rec := httptest.NewRecorder()

		env.srv.handleCreateRating(rec, req)
		if rec.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkHandleListPopular(b *testing.B) {
	env := buildTestServer(b)

	for i := 0; i < 50; i++ {
		env.vehicles.models["Bench"] = append(env.vehicles.models["Bench"], fmt.Sprintf("M%d", i))
		rec := env.serve(http.MethodPost, "/cars/", fmt.Sprintf(`{"make":"Bench","model":"M%d"}`, i))
		if rec.Code != http.StatusCreated {
			b.Fatalf("create car: status %d", rec.Code)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/popular", nil)
		rec := httptest.NewRecorder()
		env.srv.handleListPopular(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
