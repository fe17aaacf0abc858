package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/service"
)

// ============================================================
// Clients
// ============================================================

func createClientHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /clients")
		defer span.End()

		var req domain.CreateClientRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp, err := svc.Create(ctx, CallerFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

func listClientsHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /clients")
		defer span.End()

		params, err := parseListParams(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		page, err := svc.List(ctx, CallerFromContext(ctx), params)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func getClientHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /clients/byId")
		defer span.End()

		id := r.URL.Query().Get("id")
		span.SetAttributes(attribute.String("client.id", id))

		client, err := svc.Get(ctx, CallerFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, client)
	}
}

func updateClientHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /clients")
		defer span.End()

		id := r.URL.Query().Get("id")
		span.SetAttributes(attribute.String("client.id", id))

		var body map[string]any
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		client, err := svc.Update(ctx, CallerFromContext(ctx), id, body)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, client)
	}
}
