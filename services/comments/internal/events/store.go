package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/mflix/services/comments/internal/store"
)

// PublishingStore wraps a CommentStore and emits an event after every
// successful write. Publish failures are logged and never fail the write.
type PublishingStore struct {
	store.CommentStore
	pub Publisher
	log *zap.Logger
	now func() time.Time
}

func NewPublishingStore(inner store.CommentStore, pub Publisher, log *zap.Logger) *PublishingStore {
	return &PublishingStore{
		CommentStore: inner,
		pub:          pub,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *PublishingStore) Add(ctx context.Context, c store.Comment) (store.Comment, error) {
	created, err := s.CommentStore.Add(ctx, c)
	if err != nil {
		return created, err
	}
	s.emit(ctx, SubjectCreated, CommentEvent{
		CommentID: created.ID,
		MovieID:   created.MovieID,
		Email:     created.Email,
		Text:      created.Text,
	})
	return created, nil
}

func (s *PublishingStore) UpdateText(ctx context.Context, id, text, email string) (bool, error) {
	ok, err := s.CommentStore.UpdateText(ctx, id, text, email)
	if err != nil || !ok {
		return ok, err
	}
	s.emit(ctx, SubjectUpdated, CommentEvent{CommentID: id, Email: email, Text: text})
	return true, nil
}

func (s *PublishingStore) Delete(ctx context.Context, id, email string) (bool, error) {
	ok, err := s.CommentStore.Delete(ctx, id, email)
	if err != nil || !ok {
		return ok, err
	}
	s.emit(ctx, SubjectDeleted, CommentEvent{CommentID: id, Email: email})
	return true, nil
}

func (s *PublishingStore) emit(ctx context.Context, subject string, evt CommentEvent) {
	evt.EventID = uuid.NewString()
	evt.EventType = subject
	evt.OccurredAt = s.now()
	if err := s.pub.Publish(ctx, subject, evt); err != nil {
		s.log.Warn("comment event publish failed",
			zap.String("subject", subject),
			zap.String("comment_id", evt.CommentID),
			zap.Error(err),
		)
	}
}
