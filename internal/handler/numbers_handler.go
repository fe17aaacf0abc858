package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/bulk"
	"github.com/callpurity/callpurity-api/internal/service"
)

// ============================================================
// Numbers
// ============================================================

func uploadNumbersHandler(svc *service.NumbersService, maxFileSize int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /numbers")
		defer span.End()

		clientID := r.URL.Query().Get("id")
		span.SetAttributes(attribute.String("client.id", clientID))

		file, cleanup, err := readUpload(w, r, maxFileSize)
		defer cleanup()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp, err := svc.Upload(ctx, CallerFromContext(ctx), clientID, file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

func crossCheckHandler(svc *service.NumbersService, maxFileSize int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /numbers/ftc")
		defer span.End()

		file, cleanup, err := readUpload(w, r, maxFileSize)
		defer cleanup()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := svc.CrossCheck(ctx, CallerFromContext(ctx), file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}

func listNumbersHandler(svc *service.NumbersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /numbers")
		defer span.End()

		params, err := parseListParams(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		branded, err := queryBool(r, "branded")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		q := service.PhoneQuery{Branded: branded, CompanyID: r.URL.Query().Get("companyId")}

		page, err := svc.List(ctx, CallerFromContext(ctx), params, q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func downloadNumbersHandler(svc *service.NumbersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /numbers/download")
		defer span.End()

		format := bulk.Format(strings.ToLower(r.URL.Query().Get("format")))
		export, err := svc.Download(ctx, CallerFromContext(ctx), r.URL.Query().Get("companyId"), format)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var buf bytes.Buffer
		if err := bulk.WriteTable(&buf, export.Format, export.Rows); err != nil {
			handleServiceError(w, fmt.Errorf("render export: %w", err), logger)
			return
		}

		w.Header().Set("Content-Type", export.Format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func lookupNumberHandler(svc *service.NumbersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /numbers/phone")
		defer span.End()

		view, err := svc.Lookup(ctx, CallerFromContext(ctx), strings.TrimSpace(r.URL.Query().Get("tfn")))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

func allNumbersHandler(svc *service.NumbersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /numbers/all")
		defer span.End()

		items, err := svc.All(ctx, CallerFromContext(ctx), r.URL.Query().Get("companyId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, items)
	}
}

func patchNumberHandler(svc *service.NumbersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /numbers")
		defer span.End()

		id := r.URL.Query().Get("id")
		span.SetAttributes(attribute.String("number.id", id))

		var body map[string]any
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		phone, err := svc.Patch(ctx, CallerFromContext(ctx), id, body)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, phone)
	}
}

func deleteNumberHandler(svc *service.NumbersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /numbers")
		defer span.End()

		id := r.URL.Query().Get("id")
		span.SetAttributes(attribute.String("number.id", id))

		resp, err := svc.Delete(ctx, CallerFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
