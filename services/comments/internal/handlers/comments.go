package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/example/mflix/internal/platform/api"
	"github.com/example/mflix/internal/platform/auth"
	"github.com/example/mflix/internal/platform/httpserver"
	"github.com/example/mflix/services/comments/internal/idempotency"
	"github.com/example/mflix/services/comments/internal/store"
)

const maxBodyBytes = 1 << 20

type commentTextRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// CreateComment handles POST /v1/movies/{movie_id}/comments.
// idem may be nil, in which case Idempotency-Key is ignored.
func CreateComment(cs store.CommentStore, idem idempotency.Store, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		email, ok := auth.EmailFromContext(r.Context())
		if !ok || email == "" {
			api.Unauthorized(w, "authentication required", rid)
			return
		}

		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if movieID == "" {
			api.BadRequest(w, api.CodeMissingID, "movie_id is required", rid, nil)
			return
		}

		req, ok := decodeText(w, r, v, rid)
		if !ok {
			return
		}

		var idemKey string
		if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" && idem != nil {
			idemKey = email + ":" + key
			dup, err := idem.Check(r.Context(), idemKey)
			if err != nil {
				api.Internal(w, rid)
				return
			}
			if dup {
				api.Conflict(w, api.CodeDuplicateRequest, "request already processed", rid, map[string]any{"idempotency_key": key})
				return
			}
		}

		c := store.Comment{
			ID:      bson.NewObjectID().Hex(),
			MovieID: movieID,
			Name:    auth.NameFromContext(r.Context()),
			Email:   email,
			Text:    req.Text,
			Date:    time.Now().UTC().Truncate(time.Millisecond),
		}
		created, err := cs.Add(r.Context(), c)
		if err != nil {
			// Nothing was stored, so the client may retry with the same key.
			if idemKey != "" {
				_ = idem.Release(context.WithoutCancel(r.Context()), idemKey)
			}
			writeStoreError(w, err, rid)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetComment handles GET /v1/comments/{comment_id}
func GetComment(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, api.CodeMissingID, "comment_id is required", rid, nil)
			return
		}

		c, err := cs.Get(r.Context(), commentID)
		if err != nil {
			writeStoreError(w, err, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func UpdateComment(cs store.CommentStore, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		email, ok := auth.EmailFromContext(r.Context())
		if !ok || email == "" {
			api.Unauthorized(w, "authentication required", rid)
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, api.CodeMissingID, "comment_id is required", rid, nil)
			return
		}

		req, ok := decodeText(w, r, v, rid)
		if !ok {
			return
		}

		updated, err := cs.UpdateText(r.Context(), commentID, req.Text, email)
		if err != nil {
			writeStoreError(w, err, rid)
			return
		}
		if !updated {
			api.Forbidden(w, "not found or not the author", rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		email, ok := auth.EmailFromContext(r.Context())
		if !ok || email == "" {
			api.Unauthorized(w, "authentication required", rid)
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, api.CodeMissingID, "comment_id is required", rid, nil)
			return
		}

		deleted, err := cs.Delete(r.Context(), commentID, email)
		if err != nil {
			writeStoreError(w, err, rid)
			return
		}
		if !deleted {
			api.Forbidden(w, "not found or not the author", rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeText(w http.ResponseWriter, r *http.Request, v *validator.Validate, rid string) (commentTextRequest, bool) {
	var req commentTextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		api.BadRequest(w, api.CodeInvalidJSON, "invalid JSON", rid, nil)
		return req, false
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := v.StructCtx(r.Context(), req); err != nil {
		api.BadRequest(w, api.CodeValidation, "request validation failed", rid, validationDetails(err))
		return req, false
	}
	return req, true
}

func validationDetails(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return details
}

// writeStoreError maps store errors onto the API error envelope.
func writeStoreError(w http.ResponseWriter, err error, rid string) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		api.BadRequest(w, api.CodeValidation, verr.Error(), rid, map[string]any{verr.Field: verr.Reason})
	case store.IsDuplicate(err):
		api.Conflict(w, api.CodeDuplicate, "comment already exists", rid, nil)
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "comment not found", rid)
	case errors.Is(err, store.ErrDeadlineExceeded):
		api.GatewayTimeout(w, rid)
	default:
		api.Internal(w, rid)
	}
}
