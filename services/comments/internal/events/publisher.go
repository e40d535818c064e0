// Package events publishes comment lifecycle events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/mflix/internal/platform/natsconn"
)

const (
	SubjectCreated = "comments.created"
	SubjectUpdated = "comments.updated"
	SubjectDeleted = "comments.deleted"
	StreamName     = "COMMENTS"
)

// CommentEvent is the payload published to NATS.
type CommentEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	CommentID  string    `json:"comment_id"`
	MovieID    string    `json:"movie_id,omitempty"`
	Email      string    `json:"email"`
	Text       string    `json:"text,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends events to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, evt CommentEvent) error
}

// NATSPublisher publishes to JetStream. With no connection it is a stub
// that only logs.
type NATSPublisher struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	log *zap.Logger
}

// New connects to NATS and ensures the COMMENTS stream exists.
// If natsURL is empty, returns a stub publisher.
func New(natsURL string, log *zap.Logger) (*NATSPublisher, error) {
	nc, err := natsconn.Connect(natsconn.Options{URL: natsURL, Name: "comments"})
	if errors.Is(err, natsconn.ErrNotConfigured) {
		log.Warn("NATS_URL not set, comment events will not be published (stub mode)")
		return &NATSPublisher{log: log}, nil
	}
	if err != nil {
		return nil, err
	}

	js, err := natsconn.EnsureStream(nc, StreamName, "comments.>")
	if err != nil {
		nc.Close()
		return nil, err
	}

	log.Info("NATS publisher initialised", zap.String("stream", StreamName))
	return &NATSPublisher{nc: nc, js: js, log: log}, nil
}

// Publish sends evt to subject. In stub mode it logs and returns nil.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, evt CommentEvent) error {
	if p.js == nil {
		p.log.Debug("NATS stub: skipping publish", zap.String("subject", subject), zap.String("event_id", evt.EventID))
		return nil
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	ack, err := p.js.Publish(subject, data, nats.Context(ctx), nats.MsgId(evt.EventID))
	if err != nil {
		return err
	}

	p.log.Debug("NATS event published",
		zap.String("subject", subject),
		zap.String("event_id", evt.EventID),
		zap.Uint64("seq", ack.Sequence),
	)
	return nil
}

// Close drains the connection. Safe on a stub.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
