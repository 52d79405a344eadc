package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// GoogleVerifier accepts Google-issued ID tokens minted for a single audience.
type GoogleVerifier struct {
	validator *idtoken.Validator
	audience  string
}

// NewGoogleVerifier creates a GoogleVerifier for the given OAuth client ID
func NewGoogleVerifier(ctx context.Context, audience string, opts ...option.ClientOption) (*GoogleVerifier, error) {
	if audience == "" {
		return nil, fmt.Errorf("google client id is required")
	}

	validator, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ID token validator: %w", err)
	}

	return &GoogleVerifier{
		validator: validator,
		audience:  audience,
	}, nil
}

// Verify validates the token signature, expiry and audience
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	payload, err := v.validator.Validate(ctx, credential, v.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if payload.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)

	return &Identity{
		ID:          payload.Subject,
		Email:       email,
		DisplayName: name,
	}, nil
}
