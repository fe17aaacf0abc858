package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/callpurity/callpurity-api/internal/domain"
)

func validFeedback() *domain.Feedback {
	return &domain.Feedback{
		CompanyName: "Acme",
		Description: "Port 20 numbers to the new IVR",
		FirstName:   "Dana",
		Email:       " dana@acme.com ",
		GoLiveDate:  "2024-05-01T22:00:00-04:00",
	}
}

func TestFeedback_Send(t *testing.T) {
	e := newEnv(t)
	fb := validFeedback()
	fb.Attachment = &domain.Attachment{Name: "changes.xlsx", Content: []byte("data")}

	resp, err := e.feedback.Send(context.Background(), fb)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Message != "Email is successfully sent" {
		t.Errorf("unexpected message %q", resp.Message)
	}

	if len(e.mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(e.mailer.sent))
	}
	m := e.mailer.sent[0]
	if m.ToEmail != "support@callpurity.com" || m.ToName != "Callpurity" {
		t.Errorf("unexpected recipient %s <%s>", m.ToName, m.ToEmail)
	}
	if m.FromName != "Dana" || m.FromEmail != "dana@acme.com" {
		t.Errorf("unexpected sender %s <%s>", m.FromName, m.FromEmail)
	}
	if m.Subject != "Moves, Adds & Changes - Acme" {
		t.Errorf("unexpected subject %q", m.Subject)
	}
	if !strings.Contains(m.HTML, "2024-05-02") {
		t.Errorf("go-live date should render in UTC, got %q", m.HTML)
	}
	if len(m.Attachments) != 1 || m.Attachments[0].Name != "changes.xlsx" {
		t.Errorf("unexpected attachments %+v", m.Attachments)
	}
}

func TestFeedback_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(fb *domain.Feedback)
	}{
		{"missing company", func(fb *domain.Feedback) { fb.CompanyName = " " }},
		{"missing description", func(fb *domain.Feedback) { fb.Description = "" }},
		{"missing first name", func(fb *domain.Feedback) { fb.FirstName = "" }},
		{"bad email", func(fb *domain.Feedback) { fb.Email = "dana" }},
		{"bad date", func(fb *domain.Feedback) { fb.GoLiveDate = "next week" }},
		{"bad attachment", func(fb *domain.Feedback) {
			fb.Attachment = &domain.Attachment{Name: "run.exe", Content: []byte("MZ")}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			fb := validFeedback()
			tt.mutate(fb)

			_, err := e.feedback.Send(context.Background(), fb)
			if v := assertErrType[*domain.ErrValidation](t, err); v.Error() != domain.MsgFeedbackInvalid {
				t.Errorf("unexpected message %q", v.Error())
			}
			if len(e.mailer.sent) != 0 {
				t.Error("nothing should be sent")
			}
		})
	}
}

func TestFeedback_MailerFailure(t *testing.T) {
	e := newEnv(t)
	e.mailer.err = errors.New("smtp down")

	_, err := e.feedback.Send(context.Background(), validFeedback())
	if u := assertErrType[*domain.ErrUpstream](t, err); u.Error() != domain.MsgEmailFailed {
		t.Errorf("unexpected message %q", u.Error())
	}
}
