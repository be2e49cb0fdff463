// Package auth resolves bearer credentials for BigQuery tool calls and
// deployment scripts.
//
// When the agent runs inside Gemini Enterprise (Agentspace) the platform
// injects a per-request OAuth access token into session state under a
// configured auth id. Locally there is no injected token and resolution
// falls back to Application Default Credentials. The auth id only changes
// the order strategies are tried, never which strategies exist.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/adk/session"
)

// OAuth scopes used across the repo.
const (
	CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	BigQueryScope      = "https://www.googleapis.com/auth/bigquery"
)

// GoogleTokenURI is the standard token endpoint carried on platform-supplied
// credentials. The platform handles refresh itself; the endpoint is metadata
// only.
const GoogleTokenURI = "https://oauth2.googleapis.com/token"

// envAccessToken is exported by the CI workflow for script runs.
const envAccessToken = "GCP_ACCESS_TOKEN"

// State is the request-scoped key-value view the resolver reads platform
// tokens from. session.State satisfies it; a missing key is reported as
// session.ErrStateKeyNotExist.
type State interface {
	Get(key string) (any, error)
}

// Config carries the static OAuth client settings applied to resolved
// credentials.
type Config struct {
	// AuthID is the session-state key the platform stores the access token
	// under. Empty disables the platform lookup entirely.
	AuthID string

	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Credential is a resolved bearer credential. Provenance determines whether
// refresh is possible: platform-supplied tokens are opaque and refreshed by
// the platform, locally-obtained ones refresh through the standard flow.
type Credential struct {
	oauth2.TokenSource

	// PlatformProvided reports whether the token was injected by the host
	// platform rather than obtained locally.
	PlatformProvided bool
}

// FallbackFunc produces a token source through the standard local flow.
type FallbackFunc func(ctx context.Context, scopes ...string) (oauth2.TokenSource, error)

// Resolver resolves credentials for tool invocations, checking the
// platform-supplied token before the standard flow.
type Resolver struct {
	cfg      Config
	fallback FallbackFunc
}

// NewResolver returns a resolver that falls back to Application Default
// Credentials when no platform token is present.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg, fallback: adcTokenSource}
}

// NewResolverWithFallback overrides the local-flow strategy; used in tests
// and by callers that manage their own credential cache.
func NewResolverWithFallback(cfg Config, fallback FallbackFunc) *Resolver {
	return &Resolver{cfg: cfg, fallback: fallback}
}

// Resolve returns a usable bearer credential for the current request.
//
// With an auth id configured, the request state is checked first: a plain
// string value becomes a non-refreshable platform credential; a value of any
// other shape is a configuration error and fails fast rather than silently
// falling through. An absent key (session.ErrStateKeyNotExist), or no auth
// id at all, delegates to the local fallback flow. Any other state error is
// returned as-is.
func (r *Resolver) Resolve(ctx context.Context, state State) (*Credential, error) {
	if r.cfg.AuthID != "" && state != nil {
		value, err := state.Get(r.cfg.AuthID)
		switch {
		case errors.Is(err, session.ErrStateKeyNotExist):
			// No token injected for this request.
		case err != nil:
			return nil, fmt.Errorf("auth: reading state under auth id %q: %w", r.cfg.AuthID, err)
		default:
			token, isString := value.(string)
			if !isString {
				return nil, fmt.Errorf("auth: state value under auth id %q has type %T, want a plain access token string", r.cfg.AuthID, value)
			}
			if token != "" {
				slog.Debug("using platform-supplied access token", "auth_id", r.cfg.AuthID)
				return &Credential{
					TokenSource:      oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
					PlatformProvided: true,
				}, nil
			}
		}
	}

	ts, err := r.fallback(ctx, r.cfg.Scopes...)
	if err != nil {
		return nil, err
	}
	return &Credential{TokenSource: ts}, nil
}

func adcTokenSource(ctx context.Context, scopes ...string) (oauth2.TokenSource, error) {
	creds, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("auth: application default credentials: %w (try 'gcloud auth application-default login')", err)
	}
	return creds.TokenSource, nil
}

// ScriptTokenSource returns the bearer token source for one-shot deployment
// scripts: the CI-exported GCP_ACCESS_TOKEN when present, otherwise
// Application Default Credentials with the cloud-platform scope.
func ScriptTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if token := strings.TrimSpace(os.Getenv(envAccessToken)); token != "" {
		slog.Info("using access token from environment", "var", envAccessToken)
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}), nil
	}

	slog.Info("no access token in environment, authenticating with application default credentials")
	return adcTokenSource(ctx, CloudPlatformScope)
}
