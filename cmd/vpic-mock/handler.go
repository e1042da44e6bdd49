package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	httpserver "github.com/Clark-Hu/car-ratings/internal/http"
)

// catalog maps a make to its model names.
type catalog map[string][]string

type modelsResponse struct {
	Count          int           `json:"Count"`
	Message        string        `json:"Message"`
	SearchCriteria string        `json:"SearchCriteria"`
	Results        []modelResult `json:"Results"`
}

type modelResult struct {
	MakeID    int    `json:"Make_ID"`
	MakeName  string `json:"Make_Name"`
	ModelID   int    `json:"Model_ID"`
	ModelName string `json:"Model_Name"`
}

func loadCatalog(path string) (catalog, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mock data: %w", err)
	}
	var c catalog
	if err := json.Unmarshal(file, &c); err != nil {
		return nil, fmt.Errorf("parse mock data: %w", err)
	}
	return c, nil
}

// lookup matches the make case-insensitively, as the real API does.
func (c catalog) lookup(vehicleMake string) (string, []string, int) {
	makes := make([]string, 0, len(c))
	for name := range c {
		makes = append(makes, name)
	}
	sort.Strings(makes)
	for i, name := range makes {
		if strings.EqualFold(name, vehicleMake) {
			return name, c[name], 440 + i
		}
	}
	return "", nil, 0
}

// newHandler wraps the router with the service's zap access log when
// logRequests is set.
func newHandler(c catalog, logger *zap.Logger, logRequests bool) http.Handler {
	router := newRouter(c)
	if !logRequests {
		return router
	}
	return middleware.RequestID(httpserver.RequestLogger(logger)(router))
}

func newRouter(c catalog) http.Handler {
	r := chi.NewRouter()
	r.Get("/vehicles/GetModelsForMake/{make}", func(w http.ResponseWriter, r *http.Request) {
		if format := r.URL.Query().Get("format"); format != "" && !strings.EqualFold(format, "json") {
			http.Error(w, "only format=json is supported", http.StatusBadRequest)
			return
		}
		vehicleMake := chi.URLParam(r, "make")
		if unescaped, err := url.PathUnescape(vehicleMake); err == nil {
			vehicleMake = unescaped
		}

		// Unknown makes still answer 200 with an empty list.
		resp := modelsResponse{
			Message:        "Response returned successfully",
			SearchCriteria: "Make:" + vehicleMake,
			Results:        []modelResult{},
		}
		if name, models, makeID := c.lookup(vehicleMake); name != "" {
			for i, model := range models {
				resp.Results = append(resp.Results, modelResult{
					MakeID:    makeID,
					MakeName:  strings.ToUpper(name),
					ModelID:   makeID*100 + i,
					ModelName: model,
				})
			}
		}
		resp.Count = len(resp.Results)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return r
}
