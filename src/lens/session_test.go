package lens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// Hardhat account #1; test-only key.
const testOperatorKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

type fakeAuthServer struct {
	*httptest.Server
	challenges    atomic.Int64
	authenticates atomic.Int64
	failAuth      atomic.Bool
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()
	f := &fakeAuthServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/authentication/challenge", func(w http.ResponseWriter, r *http.Request) {
		f.challenges.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"id":   "challenge-1",
			"text": "Sign in to LensForum",
		})
	})
	mux.HandleFunc("/authentication/authenticate", func(w http.ResponseWriter, r *http.Request) {
		f.authenticates.Add(1)
		if f.failAuth.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"bad signature"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken": "token-abc",
			"expiresAt":   time.Now().Add(time.Hour).Format(time.RFC3339),
		})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func testSigner(t *testing.T) *KeySigner {
	t.Helper()
	signer, err := NewKeySignerFromHex(testOperatorKey)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return signer
}

func TestSessionProviderCachesWithinTTL(t *testing.T) {
	srv := newFakeAuthServer(t)
	now := time.Now()
	provider := NewSessionProvider(NewClient(srv.URL), testSigner(t)).
		WithClock(func() time.Time { return now })

	first, err := provider.Get(context.Background())
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if srv.challenges.Load() != 1 || srv.authenticates.Load() != 1 {
		t.Fatalf("expected one auth round, got %d/%d", srv.challenges.Load(), srv.authenticates.Load())
	}

	now = now.Add(49 * time.Minute)
	second, err := provider.Get(context.Background())
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if second != first {
		t.Fatal("expected cached session within TTL")
	}
	if srv.challenges.Load() != 1 || srv.authenticates.Load() != 1 {
		t.Fatalf("cache hit made network calls: %d/%d", srv.challenges.Load(), srv.authenticates.Load())
	}
}

func TestSessionProviderRefreshesAfterTTL(t *testing.T) {
	srv := newFakeAuthServer(t)
	now := time.Now()
	provider := NewSessionProvider(NewClient(srv.URL), testSigner(t)).
		WithClock(func() time.Time { return now })

	first, err := provider.Get(context.Background())
	if err != nil {
		t.Fatalf("first get: %v", err)
	}

	now = now.Add(50 * time.Minute)
	second, err := provider.Get(context.Background())
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if second == first {
		t.Fatal("expected a fresh session at TTL")
	}
	if srv.authenticates.Load() != 2 {
		t.Fatalf("expected exactly one re-auth, got %d total", srv.authenticates.Load())
	}

	// A third call inside the new window stays cached.
	if _, err := provider.Get(context.Background()); err != nil {
		t.Fatalf("third get: %v", err)
	}
	if srv.authenticates.Load() != 2 {
		t.Fatalf("unexpected re-auth: %d total", srv.authenticates.Load())
	}
}

func TestSessionProviderInvalidate(t *testing.T) {
	srv := newFakeAuthServer(t)
	provider := NewSessionProvider(NewClient(srv.URL), testSigner(t))

	if _, err := provider.Get(context.Background()); err != nil {
		t.Fatalf("get: %v", err)
	}
	provider.Invalidate()
	if _, err := provider.Get(context.Background()); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if srv.authenticates.Load() != 2 {
		t.Fatalf("expected re-auth after invalidate, got %d", srv.authenticates.Load())
	}
}

func TestSessionProviderAuthFailureIsFatal(t *testing.T) {
	srv := newFakeAuthServer(t)
	srv.failAuth.Store(true)
	provider := NewSessionProvider(NewClient(srv.URL), testSigner(t))

	if _, err := provider.Get(context.Background()); err == nil {
		t.Fatal("expected error from failed authenticate")
	}
	// No retry happened inside the provider.
	if srv.authenticates.Load() != 1 {
		t.Fatalf("expected a single authenticate attempt, got %d", srv.authenticates.Load())
	}
}
