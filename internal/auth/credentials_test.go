package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/adk/session"
)

// mapState implements State over a plain map, reporting missing keys the
// same way session.State does.
type mapState map[string]any

func (m mapState) Get(key string) (any, error) {
	v, ok := m[key]
	if !ok {
		return nil, session.ErrStateKeyNotExist
	}
	return v, nil
}

// errState fails every lookup.
type errState struct{ err error }

func (e errState) Get(string) (any, error) { return nil, e.err }

// countingFallback records invocations and returns a fixed token.
type countingFallback struct {
	calls int
	err   error
}

func (c *countingFallback) fn(_ context.Context, _ ...string) (oauth2.TokenSource, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "fallback-token"}), nil
}

func TestResolve_PlatformToken(t *testing.T) {
	fb := &countingFallback{}
	r := NewResolverWithFallback(Config{AuthID: "my-auth-id"}, fb.fn)

	cred, err := r.Resolve(context.Background(), mapState{"my-auth-id": "token123"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	tok, err := cred.Token()
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if tok.AccessToken != "token123" {
		t.Errorf("AccessToken = %q, want token123", tok.AccessToken)
	}
	if !cred.PlatformProvided {
		t.Error("PlatformProvided = false, want true for state-sourced token")
	}
	if fb.calls != 0 {
		t.Errorf("fallback invoked %d times, want 0", fb.calls)
	}
}

func TestResolve_EmptyStateFallsBack(t *testing.T) {
	fb := &countingFallback{}
	r := NewResolverWithFallback(Config{AuthID: "my-auth-id"}, fb.fn)

	cred, err := r.Resolve(context.Background(), mapState{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	tok, err := cred.Token()
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if tok.AccessToken != "fallback-token" {
		t.Errorf("AccessToken = %q, want fallback-token", tok.AccessToken)
	}
	if cred.PlatformProvided {
		t.Error("PlatformProvided = true, want false for fallback credential")
	}
	if fb.calls != 1 {
		t.Errorf("fallback invoked %d times, want exactly 1", fb.calls)
	}
}

func TestResolve_NoAuthIDSkipsStateLookup(t *testing.T) {
	fb := &countingFallback{}
	r := NewResolverWithFallback(Config{}, fb.fn)

	// Even with a token-shaped value in state, no auth id means the state is
	// never consulted.
	_, err := r.Resolve(context.Background(), mapState{"some-key": "token123"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if fb.calls != 1 {
		t.Errorf("fallback invoked %d times, want 1", fb.calls)
	}
}

func TestResolve_UnexpectedShapeFailsFast(t *testing.T) {
	fb := &countingFallback{}
	r := NewResolverWithFallback(Config{AuthID: "my-auth-id"}, fb.fn)

	_, err := r.Resolve(context.Background(), mapState{
		"my-auth-id": map[string]any{"access_token": "token123"},
	})
	if err == nil {
		t.Fatal("Resolve() expected error for structured state value")
	}
	if !strings.Contains(err.Error(), "my-auth-id") {
		t.Errorf("error = %q, want mention of the auth id", err)
	}
	if fb.calls != 0 {
		t.Errorf("fallback invoked %d times, want 0 (fail fast, no fallthrough)", fb.calls)
	}
}

func TestResolve_StateErrorFailsFast(t *testing.T) {
	fb := &countingFallback{}
	r := NewResolverWithFallback(Config{AuthID: "my-auth-id"}, fb.fn)

	wantErr := errors.New("state backend unavailable")
	_, err := r.Resolve(context.Background(), errState{err: wantErr})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Resolve() error = %v, want %v", err, wantErr)
	}
	if fb.calls != 0 {
		t.Errorf("fallback invoked %d times, want 0 (only a missing key falls back)", fb.calls)
	}
}

func TestResolve_SessionState(t *testing.T) {
	svc := session.InMemoryService()
	resp, err := svc.Create(context.Background(), &session.CreateRequest{
		AppName: "bqagent",
		UserID:  "user1",
		State:   map[string]any{"my-auth-id": "token123"},
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	fb := &countingFallback{}
	r := NewResolverWithFallback(Config{AuthID: "my-auth-id"}, fb.fn)

	cred, err := r.Resolve(context.Background(), resp.Session.State())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !cred.PlatformProvided {
		t.Error("PlatformProvided = false, want true for session-sourced token")
	}

	// A different auth id misses the key and falls back.
	r = NewResolverWithFallback(Config{AuthID: "other-id"}, fb.fn)
	cred, err = r.Resolve(context.Background(), resp.Session.State())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cred.PlatformProvided || fb.calls != 1 {
		t.Errorf("missing key: PlatformProvided = %v, fallback calls = %d, want false and 1", cred.PlatformProvided, fb.calls)
	}
}

func TestResolve_FallbackErrorPropagates(t *testing.T) {
	wantErr := errors.New("no default credentials")
	fb := &countingFallback{err: wantErr}
	r := NewResolverWithFallback(Config{AuthID: "my-auth-id"}, fb.fn)

	_, err := r.Resolve(context.Background(), mapState{})
	if !errors.Is(err, wantErr) {
		t.Errorf("Resolve() error = %v, want %v", err, wantErr)
	}
}

func TestScriptTokenSource_EnvToken(t *testing.T) {
	t.Setenv("GCP_ACCESS_TOKEN", "ci-token")

	ts, err := ScriptTokenSource(context.Background())
	if err != nil {
		t.Fatalf("ScriptTokenSource() error: %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if tok.AccessToken != "ci-token" {
		t.Errorf("AccessToken = %q, want ci-token", tok.AccessToken)
	}
}
