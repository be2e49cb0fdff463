// Package main deletes a deployed agent engine after interactive
// confirmation.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bqagent/internal/config"
	"bqagent/internal/engine"
	"bqagent/internal/logging"
)

func confirm(displayName, engineID string) bool {
	fmt.Printf("About to DELETE agent engine %q (id %s). This cannot be undone.\nContinue? [y/N]: ", displayName, engineID)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func main() {
	args := logging.Init(os.Args[1:])

	flags := flag.NewFlagSet("undeploy", flag.ExitOnError)
	force := flags.Bool("force", false, "also delete child resources such as sessions")
	yes := flags.Bool("yes", false, "skip the confirmation prompt")
	flags.Parse(args)

	ctx := context.Background()

	cfg, err := config.LoadDelete(config.NewEnv())
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	name := cfg.ReasoningEngine(cfg.EngineID)

	client, err := engine.NewClient(ctx, cfg.Project, cfg.Location)
	if err != nil {
		slog.Error("failed to create engine client", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	// Fetch the engine first so the prompt shows what is actually being
	// deleted, and a bad engine id fails before any confirmation.
	deployed, err := client.Get(ctx, name)
	if err != nil {
		slog.Error("failed to fetch agent engine", "name", name, "err", err)
		os.Exit(1)
	}

	if !*yes && !confirm(deployed.GetDisplayName(), cfg.EngineID) {
		slog.Info("aborted, nothing deleted")
		return
	}

	if err := client.Delete(ctx, name, *force); err != nil {
		slog.Error("deletion failed", "name", name, "err", err)
		os.Exit(1)
	}
}
