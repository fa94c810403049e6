package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"sticket-backend/models"
)

// Check-in subjects
const (
	SubjectCheckInSucceeded = "sticket.checkin.succeeded"
	SubjectCheckInFailed    = "sticket.checkin.failed"
	SubjectCheckInAll       = "sticket.checkin.>"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}

// CheckInEvent is the message published for every recorded check-in attempt.
type CheckInEvent struct {
	Attempt models.CheckInAttempt `json:"attempt"`
}

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	defaults := []nats.Option{
		nats.Name("sticket-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.conn.Publish(subject, data)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NoopPublisher is used when NATS is not configured.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, subject string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}

// CheckInSink forwards recorded attempts to a Publisher.
type CheckInSink struct {
	publisher Publisher
}

func NewCheckInSink(publisher Publisher) *CheckInSink {
	return &CheckInSink{publisher: publisher}
}

func (s *CheckInSink) RecordAttempt(ctx context.Context, attempt models.CheckInAttempt) error {
	subject := SubjectCheckInFailed
	if attempt.Success {
		subject = SubjectCheckInSucceeded
	}
	if err := s.publisher.Publish(ctx, subject, CheckInEvent{Attempt: attempt}); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	return nil
}
