package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// InMemoryCommentStore is a development-only in-memory implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]Comment // id -> comment
	opts     Options
}

func NewInMemoryCommentStore(opts ...Options) *InMemoryCommentStore {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	return &InMemoryCommentStore{
		comments: make(map[string]Comment),
		opts:     o,
	}
}

func (s *InMemoryCommentStore) Get(ctx context.Context, id string) (Comment, error) {
	if err := ctx.Err(); err != nil {
		return Comment{}, deadline("get", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryCommentStore) Add(ctx context.Context, c Comment) (Comment, error) {
	if c.ID == "" {
		return Comment{}, missingID()
	}
	if err := ctx.Err(); err != nil {
		return Comment{}, deadline("add", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.comments[c.ID]; exists {
		s.opts.logger().Warn("duplicate comment id", zap.String("comment_id", c.ID))
		return Comment{}, &WriteError{Op: "insert", Err: ErrDuplicateKey}
	}
	s.comments[c.ID] = c
	return c, nil
}

func (s *InMemoryCommentStore) UpdateText(ctx context.Context, id, text, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, deadline("update", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.Email != email {
		return false, nil
	}
	c.Text = text
	c.Date = s.opts.now()
	s.comments[id] = c
	return true, nil
}

func (s *InMemoryCommentStore) Delete(ctx context.Context, id, email string) (bool, error) {
	if id == "" {
		return false, missingID()
	}
	if email == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, deadline("delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.Email != email {
		return false, nil
	}
	delete(s.comments, id)
	return true, nil
}

func (s *InMemoryCommentStore) MostActiveCommenters(ctx context.Context) ([]Critic, error) {
	if err := ctx.Err(); err != nil {
		return nil, deadline("critics", err)
	}
	s.mu.RLock()
	counts := make(map[string]int64)
	for _, c := range s.comments {
		counts[c.Email]++
	}
	s.mu.RUnlock()

	critics := make([]Critic, 0, len(counts))
	for email, n := range counts {
		critics = append(critics, Critic{ID: email, Count: n})
	}
	sort.Slice(critics, func(i, j int) bool {
		if critics[i].Count != critics[j].Count {
			return critics[i].Count > critics[j].Count
		}
		return critics[i].ID < critics[j].ID
	})
	if len(critics) > CriticsLimit {
		critics = critics[:CriticsLimit]
	}
	return critics, nil
}

func (s *InMemoryCommentStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
