package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/infra/mailer"
	"github.com/callpurity/callpurity-api/internal/port"
	"github.com/callpurity/callpurity-api/internal/validation"
)

var feedbackTracer = otel.Tracer("service/feedback")

var attachmentExtensions = []string{".csv", ".xls", ".xlsx", ".doc", ".docx", ".txt"}

// FeedbackService forwards "Moves, Adds & Changes" requests to support.
type FeedbackService struct {
	mailer      port.Mailer
	to          domain.Email
	maxFileSize int64
	logger      *zap.Logger
}

// NewFeedbackService creates a feedback service delivering to supportName
// at supportEmail.
func NewFeedbackService(m port.Mailer, supportName, supportEmail string, maxFileSize int64, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		mailer:      m,
		to:          domain.Email{ToName: supportName, ToEmail: supportEmail},
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Send validates the request and emails it, attachment included.
func (s *FeedbackService) Send(ctx context.Context, fb *domain.Feedback) (*domain.MessageResponse, error) {
	ctx, span := feedbackTracer.Start(ctx, "FeedbackService.Send")
	defer span.End()

	invalid := &domain.ErrValidation{Message: domain.MsgFeedbackInvalid}
	if !validation.Names(fb.CompanyName, 1000, 1) ||
		!validation.Names(fb.Description, 10000, 1) ||
		!validation.FullName(fb.FirstName) ||
		!validation.Email(strings.TrimSpace(fb.Email)) {
		return nil, invalid
	}
	if a := fb.Attachment; a != nil {
		if err := validation.File(a.Name, int64(len(a.Content)), s.maxFileSize, attachmentExtensions...); err != nil {
			return nil, invalid
		}
	}
	goLive, ok := goLiveDate(fb.GoLiveDate)
	if !ok {
		return nil, invalid
	}

	html, err := mailer.Feedback(mailer.FeedbackData{
		CompanyName: fb.CompanyName,
		FirstName:   fb.FirstName,
		GoLiveDate:  goLive,
		Description: fb.Description,
	})
	if err != nil {
		return nil, err
	}

	email := s.to
	email.FromName = fb.FirstName
	email.FromEmail = strings.TrimSpace(fb.Email)
	email.Subject = "Moves, Adds & Changes - " + fb.CompanyName
	email.HTML = html
	if fb.Attachment != nil {
		email.Attachments = []domain.Attachment{*fb.Attachment}
	}

	if err := s.mailer.Send(ctx, &email); err != nil {
		return nil, asUpstream(err)
	}

	s.logger.Info("feedback sent", zap.Bool("attachment", fb.Attachment != nil))
	return &domain.MessageResponse{Message: "Email is successfully sent"}, nil
}

// goLiveDate accepts a calendar date or an RFC 3339 timestamp and renders
// the UTC date. Empty input is valid and renders nothing.
func goLiveDate(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", true
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t.Format(time.DateOnly), true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC().Format(time.DateOnly), true
	}
	return "", false
}
