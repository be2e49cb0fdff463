// Package registry registers deployed reasoning engines as agents in a
// Gemini Enterprise (Agentspace) application over the Discovery Engine REST
// API, and manages the OAuth authorization resources those agents use.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ConfirmFunc is asked before a destructive call. Returning false aborts the
// operation without error.
type ConfirmFunc func(a *Agent) bool

// Client talks to the Discovery Engine agents API of a single Agentspace
// application.
type Client struct {
	// AgentsEndpoint is the full URL of the application's agents collection.
	AgentsEndpoint string
	// Project is sent as X-Goog-User-Project for quota and billing.
	Project string

	tokens oauth2.TokenSource
	http   *http.Client
}

// NewClient returns a client for the given agents collection endpoint.
func NewClient(agentsEndpoint, project string, ts oauth2.TokenSource) *Client {
	return &Client{
		AgentsEndpoint: agentsEndpoint,
		Project:        project,
		tokens:         ts,
		http:           &http.Client{Timeout: 30 * time.Second},
	}
}

// List returns all agents registered in the application.
func (c *Client) List(ctx context.Context) (*AgentList, error) {
	body, err := c.do(ctx, http.MethodGet, c.AgentsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	var list AgentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parsing agents list: %w", err)
	}
	return &list, nil
}

// Register ensures the reasoning engine referenced by reg is registered
// exactly once. When a registration with the same engine id already exists
// the call is a no-op. It reports whether a new registration was created.
func (c *Client) Register(ctx context.Context, reg Registration) (bool, error) {
	engineID := lastSegment(reg.ReasoningEngine)
	list, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	if existing := list.FindByEngineID(engineID); existing != nil {
		slog.Info("agent already registered, skipping",
			"engine_id", engineID, "registration", existing.Name)
		return false, nil
	}

	body, err := c.do(ctx, http.MethodPost, c.AgentsEndpoint, reg.payload())
	if err != nil {
		return false, fmt.Errorf("registering agent: %w", err)
	}
	var created Agent
	if err := json.Unmarshal(body, &created); err != nil {
		return false, fmt.Errorf("parsing registration response: %w", err)
	}
	slog.Info("agent registered",
		"engine_id", engineID, "registration", created.Name, "display_name", created.DisplayName)
	return true, nil
}

// Unregister removes the registration whose embedded engine id matches.
// A missing registration is not an error. confirm, when non-nil, is asked
// before the delete; a nil confirm deletes unconditionally. It reports
// whether a registration was deleted.
func (c *Client) Unregister(ctx context.Context, engineID string, confirm ConfirmFunc) (bool, error) {
	list, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	existing := list.FindByEngineID(engineID)
	if existing == nil {
		slog.Info("no registration found for engine, nothing to do", "engine_id", engineID)
		return false, nil
	}
	if confirm != nil && !confirm(existing) {
		slog.Info("unregister aborted", "registration", existing.Name)
		return false, nil
	}

	if _, err := c.do(ctx, http.MethodDelete, c.AgentsEndpoint+"/"+existing.RegistrationID(), nil); err != nil {
		return false, fmt.Errorf("unregistering agent: %w", err)
	}
	slog.Info("agent unregistered", "engine_id", engineID, "registration", existing.Name)
	return true, nil
}

// UpsertAuthorization creates or updates the authorization resource at
// endpoint. The patch carries allowMissing so the same call serves both the
// first write and later credential rotations.
func (c *Client) UpsertAuthorization(ctx context.Context, endpoint string, auth Authorization) error {
	if _, err := c.do(ctx, http.MethodPatch, endpoint+"?allowMissing=true", auth); err != nil {
		return fmt.Errorf("upserting authorization: %w", err)
	}
	slog.Info("authorization upserted", "name", auth.Name)
	return nil
}

// DeleteAuthorization removes the authorization resource at endpoint.
func (c *Client) DeleteAuthorization(ctx context.Context, endpoint string) error {
	if _, err := c.do(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return fmt.Errorf("deleting authorization: %w", err)
	}
	slog.Info("authorization deleted", "endpoint", endpoint)
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("fetching access token: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	if c.Project != "" {
		req.Header.Set("X-Goog-User-Project", c.Project)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, respBody)
	}
	return respBody, nil
}
