// Package auth verifies delegated identity. The server never sees passwords;
// the browser signs in against the hosted identity provider and presents the
// resulting ID token, which the backends verify here.
package auth

import (
	"context"
	"errors"
	"strings"
)

// Identity is the verified caller. UID scopes every record store operation.
type Identity struct {
	UID   string
	Email string
}

var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier checks an ID token and resolves it to an identity.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// Static accepts any non-empty token and resolves it to a fixed owner. Used
// by the memory and sqlite backends, where there is no identity provider.
type Static struct {
	UID   string
	Email string
}

func (s Static) Verify(_ context.Context, idToken string) (Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{UID: s.UID, Email: s.Email}, nil
}

type tokenCache interface {
	Get(key string) (Identity, bool)
	Set(key string, data Identity)
}

// Cached wraps a Verifier with a TTL cache keyed by the raw token, so a page
// of HTMX fragments does not verify the same token once per request.
type Cached struct {
	next  Verifier
	cache tokenCache
}

func NewCached(next Verifier, cache tokenCache) *Cached {
	return &Cached{next: next, cache: cache}
}

func (c *Cached) Verify(ctx context.Context, idToken string) (Identity, error) {
	if id, ok := c.cache.Get(idToken); ok {
		return id, nil
	}
	id, err := c.next.Verify(ctx, idToken)
	if err != nil {
		return Identity{}, err
	}
	c.cache.Set(idToken, id)
	return id, nil
}
