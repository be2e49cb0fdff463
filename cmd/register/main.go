// Package main manages the agent's registration in a Gemini Enterprise
// (Agentspace) application.
//
// Usage:
//
//	register [register|unregister|list|create-auth|delete-auth]
//
// The default operation is register. Registration is idempotent on the
// engine id: running register twice creates exactly one entry.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bqagent/internal/auth"
	"bqagent/internal/config"
	"bqagent/internal/logging"
	"bqagent/internal/registry"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: register [register|unregister|list|create-auth|delete-auth]")
	os.Exit(2)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func confirmUnregister(a *registry.Agent) bool {
	return confirm(fmt.Sprintf("About to unregister agent %q (%s).\nContinue?", a.DisplayName, a.Name))
}

// authorization builds the OAuth authorization resource from config.
func authorization(cfg *config.Register) registry.Authorization {
	var scopes []string
	if cfg.OAuthScopes != "" {
		scopes = strings.Fields(cfg.OAuthScopes)
	}
	return registry.Authorization{
		Name: cfg.AuthorizationName(),
		ServerSideOAuth2: registry.ServerSideOAuth2{
			ClientID:         cfg.OAuthClientID,
			ClientSecret:     cfg.OAuthClientSecret,
			AuthorizationURI: cfg.AuthorizationURI(),
			TokenURI:         cfg.OAuthTokenURI,
			Scopes:           scopes,
		},
	}
}

// requireAuthorization exits unless the OAuth variable group is fully set.
// A partially set group is always a mistake, so it is reported var by var.
func requireAuthorization(cfg *config.Register) {
	missing := cfg.MissingAuthorizationVars()
	if len(missing) == 0 {
		return
	}
	slog.Error("OAuth authorization is not fully configured",
		"missing", strings.Join(missing, ", "))
	os.Exit(1)
}

func main() {
	args := logging.Init(os.Args[1:])

	op := "register"
	if len(args) > 0 {
		op = args[0]
	}

	ctx := context.Background()

	cfg, err := config.LoadRegister(config.NewEnv())
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	cfg.LogConfig()

	tokens, err := auth.ScriptTokenSource(ctx)
	if err != nil {
		slog.Error("failed to resolve credentials", "err", err)
		os.Exit(1)
	}
	client := registry.NewClient(cfg.Endpoint(), cfg.Project, tokens)

	switch op {
	case "register":
		reg := registry.Registration{
			DisplayName:     cfg.DisplayName,
			Description:     cfg.Description,
			ReasoningEngine: cfg.ReasoningEngine(),
		}
		// With any OAuth variable set, the whole group must be present and
		// the authorization is written before the registration references it.
		if cfg.AuthorizationRequested() {
			requireAuthorization(cfg)
			if err := client.UpsertAuthorization(ctx, cfg.AuthorizationEndpoint(), authorization(cfg)); err != nil {
				slog.Error("authorization upsert failed", "err", err)
				os.Exit(1)
			}
			reg.AuthorizationNames = []string{cfg.AuthorizationName()}
		}
		if _, err := client.Register(ctx, reg); err != nil {
			slog.Error("registration failed", "err", err)
			os.Exit(1)
		}

	case "unregister":
		if _, err := client.Unregister(ctx, cfg.EngineID, confirmUnregister); err != nil {
			slog.Error("unregister failed", "err", err)
			os.Exit(1)
		}

	case "list":
		list, err := client.List(ctx)
		if err != nil {
			slog.Error("list failed", "err", err)
			os.Exit(1)
		}
		if len(list.Agents) == 0 {
			fmt.Println("no agents registered")
			return
		}
		for _, a := range list.Agents {
			engineID := a.EngineID()
			if engineID == "" {
				engineID = "-"
			}
			fmt.Printf("%s\tengine=%s\t%s\n", a.RegistrationID(), engineID, a.DisplayName)
		}

	case "create-auth":
		requireAuthorization(cfg)
		if err := client.UpsertAuthorization(ctx, cfg.AuthorizationEndpoint(), authorization(cfg)); err != nil {
			slog.Error("authorization upsert failed", "err", err)
			os.Exit(1)
		}

	case "delete-auth":
		if cfg.AuthID == "" {
			slog.Error("AUTH_ID must be set to delete an authorization")
			os.Exit(1)
		}
		if !confirm(fmt.Sprintf("Delete authorization %q from project %q?", cfg.AuthID, cfg.Project)) {
			slog.Info("aborted, nothing deleted")
			return
		}
		if err := client.DeleteAuthorization(ctx, cfg.AuthorizationEndpoint()); err != nil {
			slog.Error("authorization delete failed", "err", err)
			os.Exit(1)
		}

	default:
		usage()
	}
}
