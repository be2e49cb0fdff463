// Package main deploys the agent to Vertex AI Agent Engine. Build artifacts
// are staged to GCS first; with AGENT_ENGINE_ID set the existing engine is
// updated in place, otherwise a new engine is created.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"bqagent/internal/config"
	"bqagent/internal/engine"
	"bqagent/internal/logging"
)

func main() {
	logging.Init(os.Args[1:])

	ctx := context.Background()

	cfg, err := config.LoadDeploy(config.NewEnv())
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	cfg.LogConfig()

	stager, err := engine.NewStager(ctx, cfg.Project, cfg.StorageBucket, cfg.GCSDirName)
	if err != nil {
		slog.Error("failed to create stager", "err", err)
		os.Exit(1)
	}
	defer stager.Close()

	if err := stager.EnsureBucket(ctx, cfg.Location); err != nil {
		slog.Error("failed to ensure staging bucket", "err", err)
		os.Exit(1)
	}
	artifacts, err := stager.Upload(ctx, cfg.BuildDir)
	if err != nil {
		slog.Error("failed to stage build artifacts", "build_dir", cfg.BuildDir, "err", err)
		os.Exit(1)
	}

	client, err := engine.NewClient(ctx, cfg.Project, cfg.Location)
	if err != nil {
		slog.Error("failed to create engine client", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	spec := engine.Spec{
		DisplayName:     cfg.DisplayName,
		Description:     cfg.Description,
		PickleURI:       artifacts.PickleURI,
		RequirementsURI: artifacts.RequirementsURI,
		DependenciesURI: artifacts.DependenciesURI,
		EnvVars:         cfg.AgentEnvVars(),
	}

	var name string
	if cfg.EngineID != "" {
		deployed, err := client.Update(ctx, cfg.ReasoningEngine(cfg.EngineID), spec)
		if err != nil {
			slog.Error("update failed", "engine_id", cfg.EngineID, "err", err)
			os.Exit(1)
		}
		name = deployed.GetName()
	} else {
		deployed, err := client.Create(ctx, spec)
		if err != nil {
			slog.Error("deployment failed", "err", err)
			os.Exit(1)
		}
		name = deployed.GetName()
	}

	engineID := name[strings.LastIndex(name, "/")+1:]
	slog.Info("deployment complete", "name", name, "engine_id", engineID)
	if cfg.EngineID == "" {
		slog.Info("set AGENT_ENGINE_ID in your environment to update this deployment later",
			"AGENT_ENGINE_ID", engineID)
	}
}
