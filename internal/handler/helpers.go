package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/service"
)

// ============================================================
// Shared helper functions
// ============================================================

type messageResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "Invalid request body"}
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ErrValidation{Field: key, Message: fmt.Sprintf("%s must be an integer", key)}
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter; absent means nil.
func queryBool(r *http.Request, key string) (*bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &domain.ErrValidation{Field: key, Message: fmt.Sprintf("%s must be a boolean", key)}
	}
	return &b, nil
}

func parseListParams(r *http.Request) (domain.ListParams, error) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		return domain.ListParams{}, err
	}
	limit, err := queryInt(r, "limit", service.DefaultLimit)
	if err != nil {
		return domain.ListParams{}, err
	}
	q := r.URL.Query()
	return domain.ListParams{
		Page:    page,
		Limit:   limit,
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  q.Get("sortBy"),
		SortDir: strings.ToLower(q.Get("sortDir")),
	}, nil
}

func fileTooLarge(max int64) error {
	return &domain.ErrValidation{
		Field:   "file",
		Message: fmt.Sprintf("File size cannot be greater than %s", humanize.IBytes(uint64(max))),
	}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var conflict *domain.ErrConflict
	var upstream *domain.ErrUpstream
	var circuitOpen *domain.ErrCircuitOpen
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("action", forbidden.Action))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &upstream):
		logger.Error("upstream failure", zap.String("service", upstream.Service), zap.Error(upstream.Err))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusBadRequest, domain.MsgEmailFailed)
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, domain.MsgInternal)
	}
}
