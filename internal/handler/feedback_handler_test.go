package handler_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/callpurity/callpurity-api/internal/domain"
)

func feedbackFields() map[string]string {
	return map[string]string{
		"companyName": "Acme",
		"description": "Move 10 numbers",
		"firstName":   "Dana",
		"email":       "dana@acme.com",
		"goLiveDate":  "2024-05-01",
	}
}

func TestFeedback_JSON(t *testing.T) {
	s := newServer(t)
	rec := s.doJSON(t, http.MethodPost, "/feedback", "", feedbackFields())
	assertStatus(t, rec, http.StatusOK)
	assertMessage(t, rec, "Email is successfully sent")

	if len(s.mailer.sent) != 1 || s.mailer.sent[0].Subject != "Moves, Adds & Changes - Acme" {
		t.Errorf("unexpected emails %+v", s.mailer.sent)
	}
}

func TestFeedback_MultipartWithAttachment(t *testing.T) {
	s := newServer(t)
	body, ct := multipartBody(t, feedbackFields(), "numbers.csv", "TFN\n8005550001\n")

	rec := s.do(t, http.MethodPost, "/feedback", "", body, ct)
	assertStatus(t, rec, http.StatusOK)

	if len(s.mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(s.mailer.sent))
	}
	att := s.mailer.sent[0].Attachments
	if len(att) != 1 || att[0].Name != "numbers.csv" || string(att[0].Content) != "TFN\n8005550001\n" {
		t.Errorf("unexpected attachment %+v", att)
	}
}

func TestFeedback_Rejections(t *testing.T) {
	s := newServer(t)

	fields := feedbackFields()
	delete(fields, "companyName")
	rec := s.doJSON(t, http.MethodPost, "/feedback", "", fields)
	assertStatus(t, rec, http.StatusBadRequest)
	assertMessage(t, rec, domain.MsgFeedbackInvalid)

	body, ct := multipartBody(t, feedbackFields(), "big.csv", strings.Repeat("x", 3<<20))
	rec = s.do(t, http.MethodPost, "/feedback", "", body, ct)
	assertStatus(t, rec, http.StatusBadRequest)
	assertMessage(t, rec, "File size cannot be greater than 1.0 MiB")

	s.mailer.err = errors.New("provider down")
	rec = s.doJSON(t, http.MethodPost, "/feedback", "", feedbackFields())
	assertStatus(t, rec, http.StatusBadRequest)
	assertMessage(t, rec, domain.MsgEmailFailed)
}
