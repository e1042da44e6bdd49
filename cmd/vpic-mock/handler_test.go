package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Clark-Hu/car-ratings/internal/vpic"
)

func testCatalog(t *testing.T) catalog {
	t.Helper()
	c, err := loadCatalog(filepath.Join("..", "..", "testdata", "vpic-mock.json"))
	require.NoError(t, err)
	return c
}

func TestRouter_ResponseShape(t *testing.T) {
	srv := httptest.NewServer(newRouter(testCatalog(t)))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/vehicles/GetModelsForMake/honda?format=json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body modelsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 5, body.Count)
	assert.Len(t, body.Results, 5)
	assert.Equal(t, "HONDA", body.Results[0].MakeName)
	assert.Equal(t, "Make:honda", body.SearchCriteria)
}

func TestRouter_UnknownMakeIsEmpty(t *testing.T) {
	srv := httptest.NewServer(newRouter(testCatalog(t)))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/vehicles/GetModelsForMake/Trabant?format=json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body modelsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Zero(t, body.Count)
	assert.NotNil(t, body.Results)
}

func TestRouter_RejectsOtherFormats(t *testing.T) {
	srv := httptest.NewServer(newRouter(testCatalog(t)))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/vehicles/GetModelsForMake/Honda?format=xml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_DrivesVPICClient(t *testing.T) {
	srv := httptest.NewServer(newRouter(testCatalog(t)))
	t.Cleanup(srv.Close)

	client, err := vpic.NewClient(srv.URL, vpic.Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	tests := []struct {
		make  string
		model string
		want  vpic.Outcome
	}{
		{"Honda", "Civic", vpic.Confirmed},
		{"honda", "Civic", vpic.Confirmed},
		{"Land Rover", "Defender", vpic.Confirmed},
		{"Honda", "civic", vpic.NotFound},
		{"Honda", "Mustang", vpic.NotFound},
		{"Trabant", "601", vpic.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.make+"/"+tt.model, func(t *testing.T) {
			got, err := client.Exists(context.Background(), tt.make, tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandler_AccessLog(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		core, logs := observer.New(zapcore.InfoLevel)
		handler := newHandler(testCatalog(t), zap.New(core), enabled)

		req := httptest.NewRequest(http.MethodGet, "/vehicles/GetModelsForMake/honda?format=json", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		entries := logs.FilterMessage("http request").All()
		if !enabled {
			assert.Empty(t, entries)
			continue
		}
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(http.StatusOK), fields["status"])
		assert.Equal(t, "/vehicles/GetModelsForMake/honda", fields["path"])
		assert.Equal(t, "format=json", fields["query"])
		assert.NotEmpty(t, fields["request_id"])
	}
}

func TestRootCommand_MissingData(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--data", filepath.Join(t.TempDir(), "missing.json")})
	cmd.SilenceUsage = true
	cmd.SetErr(&discard{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read mock data")
}

func TestLoadCatalog_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not","a","map"]`), 0o600))

	_, err := loadCatalog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse mock data")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
