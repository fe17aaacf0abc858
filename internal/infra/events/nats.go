// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
)

var tracer = otel.Tracer("infra/events")

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends events as JSON messages on their subject.
type Publisher struct {
	nc     conn
	logger *zap.Logger
}

// Connect dials the NATS server at url.
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("callpurity-api"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect: %w", err)
	}
	return nc, nil
}

// NewPublisher creates a Publisher on an open connection.
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	_, span := tracer.Start(ctx, "Publisher.Publish")
	defer span.End()
	span.SetAttributes(attribute.String("event.subject", event.Subject))

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	if err := p.nc.Publish(event.Subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", event.Subject, err)
	}
	p.logger.Debug("event published",
		zap.String("subject", event.Subject),
		zap.String("client_id", event.ClientID),
		zap.Int("count", event.Count),
	)
	return nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, domain.Event) error { return nil }
