package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RemoteVerifier checks credentials against an identity service that exposes
// the authenticated user at GET {baseURL}/user (Supabase GoTrue compatible).
type RemoteVerifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteVerifier creates a RemoteVerifier. apiKey is sent as the "apikey"
// header when set; httpClient may be nil.
func NewRemoteVerifier(baseURL, apiKey string, httpClient *http.Client) *RemoteVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type remoteUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
}

// Verify asks the identity service who owns credential
func (v *RemoteVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	// The oauth2 transport sets the Authorization header; the base client is taken from ctx.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: credential,
		TokenType:   "Bearer",
	}))
	client.Timeout = v.httpClient.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build identity request: %v", ErrUnauthenticated, err)
	}
	req.Header.Set("Accept", "application/json")
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: identity service unreachable: %v", ErrUnauthenticated, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read identity response: %v", ErrUnauthenticated, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: identity service returned status %d", ErrUnauthenticated, resp.StatusCode)
	}

	var user remoteUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: malformed identity response: %v", ErrUnauthenticated, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: identity response has no user id", ErrUnauthenticated)
	}

	name := user.UserMetadata.FullName
	if name == "" {
		name = user.UserMetadata.Name
	}

	return &Identity{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: name,
	}, nil
}
