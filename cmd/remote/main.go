// Package main is an interactive REPL against a deployed agent engine. A
// session is created on start and deleted on exit; each line is streamed as
// one turn.
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

func main() {
	args := logging.Init(os.Args[1:])

	flags := flag.NewFlagSet("remote", flag.ExitOnError)
	user := flags.String("user", "local-user", "user id for the remote session")
	flags.Parse(args)

	ctx := context.Background()

	cfg, err := config.LoadRunRemote(config.NewEnv())
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	name := cfg.ReasoningEngine(cfg.EngineID)

	client, err := engine.NewQueryClient(ctx, cfg.Location)
	if err != nil {
		slog.Error("failed to create query client", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	sessionID, err := client.CreateSession(ctx, name, *user)
	if err != nil {
		slog.Error("failed to create session", "engine", name, "err", err)
		os.Exit(1)
	}
	fmt.Printf("session %s started against %s\n", sessionID, name)
	fmt.Println("type 'quit' to exit")

	defer func() {
		if err := client.DeleteSession(ctx, name, *user, sessionID); err != nil {
			slog.Warn("failed to delete session", "session", sessionID, "err", err)
			return
		}
		fmt.Printf("session %s deleted\n", sessionID)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		err := client.StreamQuery(ctx, name, *user, sessionID, line, func(text string) {
			fmt.Printf("agent> %s\n", text)
		})
		if err != nil {
			slog.Error("query failed", "err", err)
		}
	}
}
