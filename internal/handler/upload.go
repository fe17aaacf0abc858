package handler

import (
	"errors"
	"net/http"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/service"
)

const (
	// multipartOverhead is the body allowance for form fields and part
	// headers on top of the file itself.
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// limitBody caps the request body. A declared length over the cap is
// rejected before anything is read.
func limitBody(w http.ResponseWriter, r *http.Request, maxFileSize int64) error {
	limit := maxFileSize + multipartOverhead
	if r.ContentLength > limit {
		return fileTooLarge(maxFileSize)
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return nil
}

func multipartError(err error, maxFileSize int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fileTooLarge(maxFileSize)
	}
	return &domain.ErrValidation{Field: "file", Message: "Invalid multipart form"}
}

// readUpload returns the "file" part of a multipart request, or nil when the
// request carries none. The caller must run the returned cleanup.
func readUpload(w http.ResponseWriter, r *http.Request, maxFileSize int64) (*service.FileUpload, func(), error) {
	noop := func() {}
	if err := limitBody(w, r, maxFileSize); err != nil {
		return nil, noop, err
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, multipartError(err, maxFileSize)
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cleanup, nil
	}
	if err != nil {
		return nil, cleanup, multipartError(err, maxFileSize)
	}
	if header.Size > maxFileSize {
		file.Close()
		return nil, cleanup, fileTooLarge(maxFileSize)
	}
	return &service.FileUpload{Name: header.Filename, Size: header.Size, Body: file}, func() {
		file.Close()
		cleanup()
	}, nil
}
