package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

type cachedIdentity struct {
	identity  Identity
	expiresAt time.Time
}

// CachingVerifier remembers successful verifications for a short time so that
// a burst of requests with the same credential reaches the provider once.
// Entries are keyed by a BLAKE2b digest; raw credentials are never stored.
type CachingVerifier struct {
	next Verifier
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[[blake2b.Size256]byte]cachedIdentity
}

// NewCachingVerifier wraps next. A ttl of zero or less returns next unchanged.
func NewCachingVerifier(next Verifier, ttl time.Duration) Verifier {
	if ttl <= 0 {
		return next
	}
	return &CachingVerifier{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[[blake2b.Size256]byte]cachedIdentity),
	}
}

// Verify returns a cached identity when one is still fresh, otherwise it
// delegates to the wrapped verifier. Failures are never cached.
func (v *CachingVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	key := blake2b.Sum256([]byte(credential))
	now := v.now()

	v.mu.Lock()
	entry, ok := v.entries[key]
	if ok && now.Before(entry.expiresAt) {
		v.mu.Unlock()
		id := entry.identity
		return &id, nil
	}
	if ok {
		delete(v.entries, key)
	}
	v.mu.Unlock()

	identity, err := v.next.Verify(ctx, credential)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.evictExpired(now)
	v.entries[key] = cachedIdentity{identity: *identity, expiresAt: now.Add(v.ttl)}
	v.mu.Unlock()

	return identity, nil
}

// evictExpired drops stale entries. Callers must hold v.mu.
func (v *CachingVerifier) evictExpired(now time.Time) {
	for k, e := range v.entries {
		if !now.Before(e.expiresAt) {
			delete(v.entries, k)
		}
	}
}
