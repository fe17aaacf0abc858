package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/service"
)

func feedbackHandler(svc *service.FeedbackService, maxFileSize int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /feedback")
		defer span.End()

		fb, err := readFeedback(w, r, maxFileSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp, err := svc.Send(ctx, fb)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// readFeedback accepts the form as multipart (with an optional "file") or as
// a JSON body.
func readFeedback(w http.ResponseWriter, r *http.Request, maxFileSize int64) (*domain.Feedback, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var fb domain.Feedback
		if err := decodeJSON(r, &fb); err != nil {
			return nil, err
		}
		return &fb, nil
	}

	if err := limitBody(w, r, maxFileSize); err != nil {
		return nil, err
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, multipartError(err, maxFileSize)
	}

	fb := &domain.Feedback{
		CompanyName: r.FormValue("companyName"),
		Description: r.FormValue("description"),
		FirstName:   r.FormValue("firstName"),
		Email:       r.FormValue("email"),
		GoLiveDate:  r.FormValue("goLiveDate"),
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return fb, nil
	}
	if err != nil {
		return nil, multipartError(err, maxFileSize)
	}
	defer file.Close()

	if header.Size > maxFileSize {
		return nil, fileTooLarge(maxFileSize)
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, multipartError(err, maxFileSize)
	}
	fb.Attachment = &domain.Attachment{Name: header.Filename, Content: content}
	return fb, nil
}
