package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/car-ratings/internal/domain"
	"github.com/Clark-Hu/car-ratings/internal/service"
)

const maxRequestBody = 1 << 20 // 1 MiB

// encoding/json reports DisallowUnknownFields violations only as text.
const unknownFieldPrefix = "json: unknown field "

const unconfirmedCarMessage = "The provided parameters do not match any real life cars."

var errBadLimit = errors.New("limit must be a positive integer")

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type carCreateRequest struct {
	Make  string `json:"make"`
	Model string `json:"model"`
}

func (req *carCreateRequest) fromForm(form url.Values) error {
	req.Make = form.Get("make")
	req.Model = form.Get("model")
	return nil
}

type carResponse struct {
	ID    string `json:"id"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

type carAverageResponse struct {
	ID        string   `json:"id"`
	Make      string   `json:"make"`
	Model     string   `json:"model"`
	AvgRating *float64 `json:"avg_rating"`
}

type carPopularityResponse struct {
	ID          string `json:"id"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	RatesNumber int64  `json:"rates_number"`
}

type ratingRequest struct {
	CarID  string `json:"car_id"`
	Rating int    `json:"rating"`
}

func (req *ratingRequest) fromForm(form url.Values) error {
	req.CarID = form.Get("car_id")
	if raw := strings.TrimSpace(form.Get("rating")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return &json.UnmarshalTypeError{Value: "string", Field: "rating"}
		}
		req.Rating = value
	}
	return nil
}

type ratingResponse struct {
	ID     string `json:"id"`
	CarID  string `json:"car_id"`
	Rating int    `json:"rating"`
}

// formDecoder is implemented by request types that also accept
// application/x-www-form-urlencoded bodies.
type formDecoder interface {
	fromForm(url.Values) error
}

func (s *Server) handleListCars(w http.ResponseWriter, r *http.Request) {
	items, err := s.queries.ListCarsWithAverageRating(r.Context())
	if err != nil {
		s.logger.Error("list cars failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list cars")
		return
	}

	resp := make([]carAverageResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, carAverageResponse{
			ID:        item.ID,
			Make:      item.Make,
			Model:     item.Model,
			AvgRating: item.Average,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	var req carCreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	car, err := s.registry.CreateCar(r.Context(), service.CreateCarInput{Make: req.Make, Model: req.Model})
	if err != nil {
		var inputErr *service.InputError
		switch {
		case errors.As(err, &inputErr):
			s.respondErrorDetails(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid car payload", inputErr.Fields)
		case errors.Is(err, service.ErrValidationFailed), errors.Is(err, service.ErrValidatorUnavailable):
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", unconfirmedCarMessage)
		case errors.Is(err, service.ErrDuplicateCar):
			s.respondError(w, http.StatusConflict, "DUPLICATE", "Car with this make and model already exists")
		default:
			s.logger.Error("create car failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create car")
		}
		return
	}

	w.Header().Set("Location", "/cars/"+url.PathEscape(car.ID))
	s.respondJSON(w, http.StatusCreated, toCarResponse(car))
}

func (s *Server) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.DeleteCar(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrCarNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Error("delete car failed", zap.String("car_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete car")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateRating(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	rating, err := s.recorder.CreateRating(r.Context(), service.CreateRatingInput{
		CarID: strings.TrimSpace(req.CarID),
		Value: req.Rating,
	})
	if err != nil {
		var inputErr *service.InputError
		switch {
		case errors.As(err, &inputErr):
			s.respondErrorDetails(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid rating", inputErr.Fields)
		case errors.Is(err, service.ErrInvalidRating):
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid rating")
		default:
			s.logger.Error("create rating failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record rating")
		}
		return
	}

	s.respondJSON(w, http.StatusCreated, toRatingResponse(rating))
}

func (s *Server) handleListPopular(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	items, err := s.queries.ListCarsByPopularity(r.Context(), limit)
	if err != nil {
		s.logger.Error("list popular cars failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list popular cars")
		return
	}

	resp := make([]carPopularityResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, carPopularityResponse{
			ID:          item.ID,
			Make:        item.Make,
			Model:       item.Model,
			RatesNumber: item.RatesNumber,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// parseLimit reads the optional ?limit=N. Zero means "use the configured default".
func parseLimit(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errBadLimit
	}
	return limit, nil
}

// decodeBody accepts JSON, or a urlencoded form when dst supports it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if fd, ok := dst.(formDecoder); ok && isFormRequest(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := r.ParseForm(); err != nil {
			return err
		}
		return fd.fromForm(r.PostForm)
	}
	return decodeJSONBody(w, r, dst)
}

func isFormRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn("failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondErrorDetails(w, status, code, message, nil)
}

func (s *Server) respondErrorDetails(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	resp := errorResponse{Code: code, Message: message}
	if len(details) > 0 {
		resp.Details = details
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
	case errors.As(err, &syntaxError), errors.Is(err, io.ErrUnexpectedEOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		field := strings.Trim(strings.TrimPrefix(err.Error(), unknownFieldPrefix), `"`)
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Unknown field %s", field))
	default:
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toCarResponse(car domain.Car) carResponse {
	return carResponse{ID: car.ID, Make: car.Make, Model: car.Model}
}

func toRatingResponse(rating domain.Rating) ratingResponse {
	return ratingResponse{ID: rating.ID, CarID: rating.CarID, Rating: rating.Value}
}
