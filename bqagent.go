// Package main implements the BigQuery analytics agent - an LLM agent that
// answers questions over a single BigQuery dataset with read-only SQL, plus
// small utility tools. The same assembly runs locally for development and
// inside Vertex AI Agent Engine when deployed.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"google.golang.org/genai"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/artifact"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/full"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"

	"bqagent/internal/auth"
	"bqagent/internal/config"
	"bqagent/internal/logging"
	"bqagent/internal/telemetry"
	"bqagent/prompts"
)

// newModel creates the Gemini model. With GOOGLE_API_KEY set it goes through
// the Gemini API directly; otherwise it uses the Vertex AI backend with
// Application Default Credentials.
func newModel(ctx context.Context, name, project string) (model.LLM, error) {
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		slog.Info("using model", "model", name, "backend", "gemini-api")
		return gemini.NewModel(ctx, name, &genai.ClientConfig{APIKey: apiKey})
	}
	location := os.Getenv("GOOGLE_CLOUD_LOCATION")
	if location == "" {
		location = "us-central1"
	}
	slog.Info("using model", "model", name, "backend", "vertex", "location", location)
	return gemini.NewModel(ctx, name, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	})
}

func main() {
	remainingArgs := logging.Init(os.Args[1:])

	ctx := context.Background()

	cfg, err := config.LoadRunLocal(config.NewEnv())
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// Telemetry export is opt-in via the standard OTLP endpoint variable.
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdown, err := telemetry.Setup(ctx, telemetry.Config{
			Project:           cfg.Project,
			ServiceName:       cfg.AgentName,
			ServiceNamespace:  "agent-engine",
			ServiceInstanceID: os.Getenv("HOSTNAME"),
		})
		if err != nil {
			slog.Error("failed to set up telemetry", "err", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Warn("telemetry shutdown", "err", err)
			}
		}()
	}

	llmModel, err := newModel(ctx, cfg.Model, cfg.Project)
	if err != nil {
		slog.Error("failed to create model", "model", cfg.Model, "err", err)
		os.Exit(1)
	}

	resolver := auth.NewResolver(auth.Config{
		AuthID:       cfg.PlatformAuthID,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		Scopes:       []string{auth.BigQueryScope, auth.CloudPlatformScope},
	})
	if cfg.PlatformAuthID != "" {
		slog.Info("platform authorization enabled", "auth_id", cfg.PlatformAuthID)
	}

	bqTools, err := newBQToolset(cfg.Project, cfg.DatasetID, resolver).tools()
	if err != nil {
		slog.Error("failed to create BigQuery tools", "err", err)
		os.Exit(1)
	}
	utilTools, err := utilityTools()
	if err != nil {
		slog.Error("failed to create utility tools", "err", err)
		os.Exit(1)
	}
	tools := append([]tool.Tool{}, bqTools...)
	tools = append(tools, utilTools...)

	instruction := prompts.Global(time.Now()) + "\n\n" + prompts.Root(cfg.Project, cfg.DatasetID)

	cb := NewLoggingCallbacks()
	rootAgent, err := llmagent.New(llmagent.Config{
		Name:                 cfg.AgentName,
		Model:                llmModel,
		Description:          "Agent to answer questions about BigQuery data and execute read-only SQL queries.",
		Instruction:          instruction,
		Tools:                tools,
		BeforeAgentCallbacks: []agent.BeforeAgentCallback{cb.BeforeAgent},
		AfterAgentCallbacks:  []agent.AfterAgentCallback{cb.AfterAgent},
		BeforeModelCallbacks: []llmagent.BeforeModelCallback{cb.BeforeModel},
		AfterModelCallbacks:  []llmagent.AfterModelCallback{cb.AfterModel},
		BeforeToolCallbacks:  []llmagent.BeforeToolCallback{cb.BeforeTool},
		AfterToolCallbacks:   []llmagent.AfterToolCallback{cb.AfterTool},
	})
	if err != nil {
		slog.Error("failed to create root agent", "err", err)
		os.Exit(1)
	}
	slog.Info("agent initialized",
		"agent", cfg.AgentName, "project", cfg.Project, "dataset", cfg.DatasetID, "tools", len(tools))

	agentLoader, err := agent.NewMultiLoader(rootAgent)
	if err != nil {
		slog.Error("failed to create agent loader", "err", err)
		os.Exit(1)
	}

	launcherConfig := &launcher.Config{
		ArtifactService: artifact.InMemoryService(),
		SessionService:  session.InMemoryService(),
		AgentLoader:     agentLoader,
	}

	l := full.NewLauncher()
	if err := l.Execute(ctx, launcherConfig, remainingArgs); err != nil {
		slog.Error("failed to launch", "err", err, "usage", l.CommandLineSyntax())
		os.Exit(1)
	}
}
