package lens

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// sessionTTL is how long a cached operator session is trusted before the
// provider re-authenticates. Lens access tokens live for an hour; renewing
// at 50 minutes keeps a safety margin.
const sessionTTL = 50 * time.Minute

// SessionProvider hands out the operator's authenticated session client,
// re-running challenge/sign/authenticate only when the cached session is
// absent or stale. Safe for concurrent use; a miss authenticates once, not
// once per caller.
type SessionProvider struct {
	mu       sync.Mutex
	client   *Client
	signer   Signer
	now      func() time.Time
	session  *SessionClient
	issuedAt time.Time
}

// NewSessionProvider creates a provider for the given client and operator
// signer. The clock defaults to time.Now.
func NewSessionProvider(client *Client, signer Signer) *SessionProvider {
	return &SessionProvider{
		client: client,
		signer: signer,
		now:    time.Now,
	}
}

// WithClock overrides the provider's clock.
func (p *SessionProvider) WithClock(now func() time.Time) *SessionProvider {
	p.now = now
	return p
}

// Get returns a ready session client, authenticating if needed. An
// authentication failure is returned as-is; the caller treats it as fatal
// for the current request, no retry is attempted here.
func (p *SessionProvider) Get(ctx context.Context) (*SessionClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil && p.now().Sub(p.issuedAt) < sessionTTL {
		return p.session, nil
	}

	session, err := p.client.Login(ctx, p.signer)
	if err != nil {
		return nil, fmt.Errorf("operator login: %w", err)
	}

	p.session = session
	p.issuedAt = p.now()
	log.Printf("lens: operator session refreshed for %s", p.signer.Address())
	return p.session, nil
}

// Invalidate drops the cached session so the next Get re-authenticates.
func (p *SessionProvider) Invalidate() {
	p.mu.Lock()
	p.session = nil
	p.issuedAt = time.Time{}
	p.mu.Unlock()
}
