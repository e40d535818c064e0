package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *InMemoryCommentStore {
	return NewInMemoryCommentStore(Options{Now: func() time.Time { return fixedNow }})
}

func seed(t *testing.T, s CommentStore, id, email string) Comment {
	t.Helper()
	c := Comment{
		ID:      id,
		MovieID: "573a1390f29313caabcd4135",
		Name:    "Ned Stark",
		Email:   email,
		Text:    "original",
		Date:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := s.Add(context.Background(), c); err != nil {
		t.Fatalf("add %s: %v", id, err)
	}
	return c
}

func TestInMemoryCommentStore_AddGet(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	c := Comment{ID: "c1", MovieID: "m1", Name: "Arya", Email: "arya@x.com", Text: "hello", Date: fixedNow}
	got, err := s.Add(ctx, c)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got != c {
		t.Fatalf("expected add to echo %+v, got %+v", c, got)
	}

	stored, err := s.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored != c {
		t.Fatalf("expected %+v, got %+v", c, stored)
	}
}

func TestInMemoryCommentStore_Get_NotFound(t *testing.T) {
	s := newTestStore()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryCommentStore_Add_RequiresID(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(context.Background(), Comment{Email: "a@x.com", Text: "no id"})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "id" {
		t.Fatalf("expected field 'id', got %q", verr.Field)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected errors.Is(err, ErrValidation)")
	}
	critics, _ := s.MostActiveCommenters(context.Background())
	if len(critics) != 0 {
		t.Fatalf("expected no write, got critics %v", critics)
	}
}

func TestInMemoryCommentStore_Add_Duplicate(t *testing.T) {
	s := newTestStore()
	seed(t, s, "c1", "a@x.com")

	_, err := s.Add(context.Background(), Comment{ID: "c1", Email: "b@x.com", Text: "again"})
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *WriteError, got %v", err)
	}
	if werr.Op != "insert" || !IsDuplicate(err) {
		t.Fatalf("expected duplicate insert error, got %v", err)
	}

	stored, _ := s.Get(context.Background(), "c1")
	if stored.Email != "a@x.com" {
		t.Fatalf("duplicate insert must not overwrite, got %+v", stored)
	}
}

func TestInMemoryCommentStore_UpdateText_Owner(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "c1", "u1")

	ok, err := s.UpdateText(ctx, "c1", "edited", "u1")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !ok {
		t.Fatal("expected owner update to succeed")
	}
	got, _ := s.Get(ctx, "c1")
	if got.Text != "edited" {
		t.Fatalf("expected text 'edited', got %q", got.Text)
	}
	if !got.Date.Equal(fixedNow) {
		t.Fatalf("expected date refreshed to %s, got %s", fixedNow, got.Date)
	}
}

func TestInMemoryCommentStore_UpdateText_NotOwner(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	orig := seed(t, s, "c1", "u1")

	ok, err := s.UpdateText(ctx, "c1", "hacked", "u2")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ok {
		t.Fatal("expected non-owner update to report false")
	}
	got, _ := s.Get(ctx, "c1")
	if got != orig {
		t.Fatalf("expected comment unchanged, got %+v", got)
	}
}

func TestInMemoryCommentStore_UpdateText_Missing(t *testing.T) {
	s := newTestStore()
	ok, err := s.UpdateText(context.Background(), "nope", "text", "u1")
	if err != nil || ok {
		t.Fatalf("expected false, nil for missing comment, got %v, %v", ok, err)
	}
}

func TestInMemoryCommentStore_Delete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "c1", "u1")

	// Non-owner cannot delete
	ok, err := s.Delete(ctx, "c1", "u2")
	if err != nil || ok {
		t.Fatalf("expected false, nil for non-owner, got %v, %v", ok, err)
	}
	if _, err := s.Get(ctx, "c1"); err != nil {
		t.Fatalf("comment should survive non-owner delete: %v", err)
	}

	// Owner deletes
	ok, err = s.Delete(ctx, "c1", "u1")
	if err != nil || !ok {
		t.Fatalf("expected true, nil for owner, got %v, %v", ok, err)
	}
	if _, err := s.Get(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Second delete matches nothing
	ok, err = s.Delete(ctx, "c1", "u1")
	if err != nil || ok {
		t.Fatalf("expected false, nil for repeat delete, got %v, %v", ok, err)
	}
}

func TestInMemoryCommentStore_Delete_EmptyInputs(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	orig := seed(t, s, "c1", "u1")

	if _, err := s.Delete(ctx, "", "u1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}

	ok, err := s.Delete(ctx, "c1", "")
	if err != nil || ok {
		t.Fatalf("expected false, nil for empty email, got %v, %v", ok, err)
	}
	got, _ := s.Get(ctx, "c1")
	if got != orig {
		t.Fatalf("expected comment unchanged, got %+v", got)
	}
}

func TestInMemoryCommentStore_MostActiveCommenters(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	n := 0
	for email, count := range map[string]int{"a@x.com": 3, "b@x.com": 5, "c@x.com": 1} {
		for i := 0; i < count; i++ {
			n++
			seed(t, s, fmt.Sprintf("c%d", n), email)
		}
	}

	critics, err := s.MostActiveCommenters(ctx)
	if err != nil {
		t.Fatalf("critics: %v", err)
	}
	want := []Critic{{ID: "b@x.com", Count: 5}, {ID: "a@x.com", Count: 3}, {ID: "c@x.com", Count: 1}}
	if len(critics) != len(want) {
		t.Fatalf("expected %d critics, got %v", len(want), critics)
	}
	for i := range want {
		if critics[i] != want[i] {
			t.Fatalf("critic %d: expected %+v, got %+v", i, want[i], critics[i])
		}
	}
}

func TestInMemoryCommentStore_MostActiveCommenters_LimitAndTies(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	total := 0
	for u := 0; u < 25; u++ {
		email := fmt.Sprintf("user%02d@x.com", u)
		// users 0-4 get 2 comments, the rest 1
		count := 1
		if u < 5 {
			count = 2
		}
		for i := 0; i < count; i++ {
			total++
			seed(t, s, fmt.Sprintf("c%d", total), email)
		}
	}

	critics, err := s.MostActiveCommenters(ctx)
	if err != nil {
		t.Fatalf("critics: %v", err)
	}
	if len(critics) != CriticsLimit {
		t.Fatalf("expected %d critics, got %d", CriticsLimit, len(critics))
	}
	var sum int64
	for i, c := range critics {
		sum += c.Count
		if i == 0 {
			continue
		}
		prev := critics[i-1]
		if prev.Count < c.Count || (prev.Count == c.Count && prev.ID > c.ID) {
			t.Fatalf("critics out of order at %d: %+v before %+v", i, prev, c)
		}
	}
	if sum > int64(total) {
		t.Fatalf("sum of counts %d exceeds total comments %d", sum, total)
	}
	if critics[0].ID != "user00@x.com" || critics[5].ID != "user05@x.com" {
		t.Fatalf("expected email tie-break, got first=%s sixth=%s", critics[0].ID, critics[5].ID)
	}
}

func TestInMemoryCommentStore_CanceledContext(t *testing.T) {
	s := newTestStore()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	if _, err := s.Get(ctx, "c1"); !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded, got %v", err)
	}
	if _, err := s.MostActiveCommenters(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded to match, got %v", err)
	}
}

func TestCommentStoreInterface(t *testing.T) {
	var _ CommentStore = (*InMemoryCommentStore)(nil)
	var _ CommentStore = (*MongoCommentStore)(nil)
	var _ CommentStore = (*PostgresCommentStore)(nil)
}
