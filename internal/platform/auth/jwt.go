package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/mflix/internal/platform/api"
	"github.com/example/mflix/internal/platform/httpserver"
)

type ctxKeyUserID struct{}
type ctxKeyEmail struct{}
type ctxKeyName struct{}
type ctxKeyRole struct{}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok
}

// EmailFromContext returns the requester email. Comment ownership is keyed on it.
func EmailFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyEmail{}).(string)
	return v, ok
}

func NameFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyName{}).(string)
	return v
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRole{}).(string)
	return v, ok
}

// WithUser injects the identity RequireUser would. Useful for testing.
func WithUser(ctx context.Context, uid, email, name string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID{}, uid)
	ctx = context.WithValue(ctx, ctxKeyEmail{}, email)
	return context.WithValue(ctx, ctxKeyName{}, name)
}

// WithRole injects role into context. Useful for testing.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole{}, role)
}

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ErrNoBearer is returned by BearerToken when the Authorization header does
// not carry a bearer token.
var ErrNoBearer = errors.New("missing bearer token")

// BearerToken extracts the token from an "Authorization: Bearer <t>" header.
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoBearer
	}
	return strings.TrimSpace(token), nil
}

// RequireUser validates the Bearer token and injects user id, email, name and
// role into the request context. Tokens without an email claim are rejected.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := httpserver.RequestIDFromContext(r.Context())
			token, err := BearerToken(r)
			if err != nil {
				api.Unauthorized(w, "authentication required", rid)
				return
			}
			claims, err := verifier.Parse(token)
			if err != nil {
				api.Unauthorized(w, "invalid or expired token", rid)
				return
			}
			email := strings.TrimSpace(claims.Email)
			if email == "" {
				api.Unauthorized(w, "token has no email claim", rid)
				return
			}
			uid := strings.TrimSpace(claims.Subject)
			if uid == "" {
				uid = email
			}
			ctx := WithUser(r.Context(), uid, email, claims.Name)
			if role := strings.TrimSpace(claims.Role); role != "" {
				ctx = WithRole(ctx, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
