package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrMissingCredential is returned when a request carries no bearer credential at all.
	ErrMissingCredential = errors.New("missing bearer credential")
	// ErrUnauthenticated is returned when the identity provider does not accept the credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Identity is the principal behind a verified credential. It is owned by the
// identity provider and only referenced here.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Verifier validates a bearer credential against an identity provider.
type Verifier interface {
	// Verify returns the identity for credential or an error matching ErrUnauthenticated.
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingCredential
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingCredential
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
