// Package mailer delivers transactional email through Brevo, falling back to
// the log when no API key is configured.
package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/infra/resilience"
)

var tracer = otel.Tracer("infra/mailer")

const sendPath = "/v3/smtp/email"

// Sender is the default From address.
type Sender struct {
	Name  string
	Email string
}

type contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type attachment struct {
	Content string `json:"content"`
	Name    string `json:"name"`
}

type sendRequest struct {
	Sender      contact      `json:"sender"`
	To          []contact    `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"htmlContent"`
	Attachment  []attachment `json:"attachment,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Brevo sends email through the Brevo transactional API.
type Brevo struct {
	http    *resty.Client
	sender  Sender
	cb      *gobreaker.CircuitBreaker
	cfg     resilience.Config
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewBrevo creates a Brevo client. timeout bounds each HTTP attempt.
func NewBrevo(baseURL, apiKey string, timeout time.Duration, sender Sender, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Brevo {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("api-key", apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Brevo{
		http:    client,
		sender:  sender,
		cb:      cb,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Send delivers the email. Any failure is reported as an upstream error
// carrying the client-facing message.
func (b *Brevo) Send(ctx context.Context, email *domain.Email) error {
	ctx, span := tracer.Start(ctx, "Brevo.Send")
	defer span.End()
	span.SetAttributes(attribute.Int("email.attachments", len(email.Attachments)))

	body := b.request(email)

	_, err := b.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, b.cfg, func() error {
			return b.post(ctx, body)
		})
	})
	if err != nil {
		b.metrics.IncrEmail("failed")
		b.logger.Error("email delivery failed",
			zap.String("subject", email.Subject),
			zap.Bool("circuit_open", resilience.IsCircuitOpen(err)),
			zap.Error(err),
		)
		span.RecordError(err)
		if resilience.IsCircuitOpen(err) {
			err = &domain.ErrCircuitOpen{Service: "brevo"}
		}
		return &domain.ErrUpstream{Service: "brevo", Message: domain.MsgEmailFailed, Err: err}
	}

	b.metrics.IncrEmail("sent")
	return nil
}

func (b *Brevo) request(email *domain.Email) *sendRequest {
	from := contact{Name: b.sender.Name, Email: b.sender.Email}
	if email.FromEmail != "" {
		from = contact{Name: email.FromName, Email: email.FromEmail}
	}

	req := &sendRequest{
		Sender:      from,
		To:          []contact{{Name: email.ToName, Email: email.ToEmail}},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
	}
	for _, a := range email.Attachments {
		req.Attachment = append(req.Attachment, attachment{
			Content: base64.StdEncoding.EncodeToString(a.Content),
			Name:    a.Name,
		})
	}
	return req
}

func (b *Brevo) post(ctx context.Context, body *sendRequest) error {
	var apiErr apiError
	resp, err := b.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&apiErr).
		Post(sendPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return resilience.Permanent(err)
		}
		return fmt.Errorf("brevo: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("brevo: status %d: %s", status, apiErr.Code)
	default:
		// Rejected payloads and credentials do not improve on retry.
		return resilience.Permanent(fmt.Errorf("brevo: status %d: %s %s", status, apiErr.Code, apiErr.Message))
	}
}
