package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/chain"
	"github.com/lensforum/lensforum/src/lens"
	"github.com/lensforum/lensforum/src/storage"
)

// operatorKey is hardhat's second dev account. Tests sign real challenges
// with it; the fake upstream accepts any signature.
const (
	operatorKey  = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	operatorAddr = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// fakeLens is an httptest stand-in for the Lens API. Writes return
// deterministic transaction hashes that immediately report FINALISED, and
// every request path is counted so tests can assert what was (not) called.
type fakeLens struct {
	mu     sync.Mutex
	calls  map[string]int
	groups map[string]lens.Group
	stats  map[string]lens.GroupStats
	admins map[string][]lens.Account
	feeds  map[string]lens.Feed
	posts  map[string]lens.Post

	// tx hash -> the object readable back via /transactions/{hash}/...
	txGroup map[string]string
	txFeed  map[string]string
	txPost  map[string]string
	nextTx  int

	srv *httptest.Server
}

func newFakeLens() *fakeLens {
	f := &fakeLens{
		calls:   make(map[string]int),
		groups:  make(map[string]lens.Group),
		stats:   make(map[string]lens.GroupStats),
		admins:  make(map[string][]lens.Account),
		feeds:   make(map[string]lens.Feed),
		posts:   make(map[string]lens.Post),
		txGroup: make(map[string]string),
		txFeed:  make(map[string]string),
		txPost:  make(map[string]string),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeLens) Close()      { f.srv.Close() }
func (f *fakeLens) URL() string { return f.srv.URL }

func (f *fakeLens) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeLens) newHash() string {
	f.nextTx++
	return fmt.Sprintf("0xtx%d", f.nextTx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakeLens) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/authentication/challenge":
		writeJSON(w, map[string]string{"id": "ch-1", "text": "login as operator"})
	case path == "/authentication/authenticate":
		writeJSON(w, map[string]string{"accessToken": "test-token"})

	case path == "/groups/create":
		f.mu.Lock()
		hash := f.newHash()
		addr := fmt.Sprintf("0xgroup%d", f.nextTx)
		f.groups[addr] = lens.Group{Address: addr, Owner: operatorAddr}
		f.txGroup[hash] = addr
		f.mu.Unlock()
		writeJSON(w, map[string]string{"hash": hash})
	case path == "/groups/metadata" || path == "/groups/rules" ||
		path == "/groups/join" || path == "/groups/leave":
		f.mu.Lock()
		hash := f.newHash()
		f.mu.Unlock()
		writeJSON(w, map[string]string{"hash": hash})

	case path == "/groups/fetch":
		addrs := decodeAddresses(r)
		f.mu.Lock()
		items := []lens.Group{}
		for _, a := range addrs {
			if g, ok := f.groups[a]; ok {
				items = append(items, g)
			}
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{"items": items})
	case path == "/groups/stats":
		addrs := decodeAddresses(r)
		f.mu.Lock()
		items := []lens.GroupStats{}
		for _, a := range addrs {
			if s, ok := f.stats[a]; ok {
				items = append(items, s)
			}
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{"items": items})
	case path == "/groups/admins":
		addrs := decodeAddresses(r)
		f.mu.Lock()
		items := []lens.GroupAdmins{}
		for _, a := range addrs {
			if accounts, ok := f.admins[a]; ok {
				items = append(items, lens.GroupAdmins{Group: a, Items: accounts})
			}
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{"items": items})

	case path == "/feeds/create":
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		hash := f.newHash()
		addr := fmt.Sprintf("0xfeed%d", f.nextTx)
		f.feeds[addr] = lens.Feed{Address: addr, Group: req["group"]}
		f.txFeed[hash] = addr
		f.mu.Unlock()
		writeJSON(w, map[string]string{"hash": hash})

	case path == "/posts/create":
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		hash := f.newHash()
		id := fmt.Sprintf("post-%d", f.nextTx)
		f.posts[id] = lens.Post{ID: id, Feed: req["feed"], ContentURI: req["contentUri"], CommentOn: req["commentOn"]}
		f.txPost[hash] = id
		f.mu.Unlock()
		writeJSON(w, map[string]string{"hash": hash})
	case path == "/posts/list":
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		items := []lens.Post{}
		for _, p := range f.posts {
			if p.Feed == req["feed"] {
				items = append(items, p)
			}
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{"items": items})
	case path == "/posts/hide" || path == "/posts/unhide" ||
		path == "/posts/reactions/add" || path == "/posts/reactions/undo":
		writeJSON(w, map[string]string{})

	case strings.HasPrefix(path, "/transactions/"):
		rest := strings.TrimPrefix(path, "/transactions/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		hash, what := parts[0], parts[1]
		f.mu.Lock()
		defer f.mu.Unlock()
		switch what {
		case "status":
			writeJSON(w, lens.TxStatus{Status: lens.TxFinalized})
		case "group":
			if addr, ok := f.txGroup[hash]; ok {
				writeJSON(w, f.groups[addr])
				return
			}
			http.NotFound(w, r)
		case "feed":
			if addr, ok := f.txFeed[hash]; ok {
				writeJSON(w, f.feeds[addr])
				return
			}
			http.NotFound(w, r)
		case "post":
			if id, ok := f.txPost[hash]; ok {
				writeJSON(w, f.posts[id])
				return
			}
			http.NotFound(w, r)
		}

	case strings.HasPrefix(path, "/groups/"):
		addr := strings.TrimPrefix(path, "/groups/")
		f.mu.Lock()
		g, ok := f.groups[addr]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, g)
	case strings.HasPrefix(path, "/posts/"):
		id := strings.TrimPrefix(path, "/posts/")
		f.mu.Lock()
		p, ok := f.posts[id]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, p)

	default:
		http.NotFound(w, r)
	}
}

func decodeAddresses(r *http.Request) []string {
	var req struct {
		Addresses []string `json:"addresses"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	return req.Addresses
}

// fakeGrove answers every upload with a fresh lens:// URI and keeps the
// uploaded bodies for inspection.
type fakeGrove struct {
	mu      sync.Mutex
	uploads [][]byte
	srv     *httptest.Server
}

func newFakeGrove() *fakeGrove {
	g := &fakeGrove{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.uploads = append(g.uploads, body)
		uri := fmt.Sprintf("lens://content%d", len(g.uploads))
		g.mu.Unlock()
		writeJSON(w, map[string]string{"uri": uri})
	}))
	return g
}

func (g *fakeGrove) Close() { g.srv.Close() }

func (g *fakeGrove) body(i int) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.uploads) {
		return nil
	}
	return g.uploads[i]
}

func (g *fakeGrove) uploadCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.uploads)
}

type gateReader struct {
	balances map[string]*big.Int
}

func (g *gateReader) BalanceOf(ctx context.Context, token, holder string) (*big.Int, error) {
	if b, ok := g.balances[token]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.Community{}, &types.Thread{}, &types.Reply{}, &types.Setting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTestService wires a Service against the fakes. rdb is nil, so event
// publishing is skipped.
func newTestService(t *testing.T, fake *fakeLens, reader chain.BalanceReader) (*Service, *gorm.DB) {
	svc, db, _ := newTestServiceGrove(t, fake, reader)
	return svc, db
}

func newTestServiceGrove(t *testing.T, fake *fakeLens, reader chain.BalanceReader) (*Service, *gorm.DB, *fakeGrove) {
	t.Helper()
	db := newTestDB(t)

	grove := newFakeGrove()
	t.Cleanup(grove.Close)

	lensClient := lens.NewClient(fake.URL())
	signer, err := lens.NewKeySignerFromHex(operatorKey)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	operator := lens.NewSessionProvider(lensClient, signer)
	store := storage.NewClient(grove.srv.URL, grove.srv.URL, 232)
	if reader == nil {
		reader = &gateReader{}
	}
	return New(db, nil, lensClient, operator, chain.NewVerifier(reader), store), db, grove
}

// userSession returns a session client acting as addr without a login
// round-trip.
func userSession(fake *fakeLens, addr string) *lens.SessionClient {
	return lens.NewClient(fake.URL()).WithToken("user-token", addr)
}
