package main

import (
	"log/slog"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"
)

// LoggingCallbacks logs agent lifecycle events. All callbacks are
// non-intrusive: they return nil results so processing continues unchanged.
type LoggingCallbacks struct {
	logger *slog.Logger
}

// NewLoggingCallbacks returns callbacks logging to the default logger.
func NewLoggingCallbacks() *LoggingCallbacks {
	return &LoggingCallbacks{logger: slog.Default()}
}

// BeforeAgent logs the start of an agent turn.
func (l *LoggingCallbacks) BeforeAgent(ctx agent.CallbackContext) (*genai.Content, error) {
	l.logger.Info("agent turn starting",
		"agent", ctx.AgentName(), "invocation_id", ctx.InvocationID())
	return nil, nil
}

// AfterAgent logs the end of an agent turn.
func (l *LoggingCallbacks) AfterAgent(ctx agent.CallbackContext) (*genai.Content, error) {
	l.logger.Info("agent turn finished",
		"agent", ctx.AgentName(), "invocation_id", ctx.InvocationID())
	return nil, nil
}

// BeforeModel logs the start of an LLM call.
func (l *LoggingCallbacks) BeforeModel(ctx agent.CallbackContext, req *model.LLMRequest) (*model.LLMResponse, error) {
	l.logger.Info("model call starting",
		"agent", ctx.AgentName(), "invocation_id", ctx.InvocationID())
	return nil, nil
}

// AfterModel logs the outcome of an LLM call.
func (l *LoggingCallbacks) AfterModel(ctx agent.CallbackContext, resp *model.LLMResponse, respErr error) (*model.LLMResponse, error) {
	if respErr != nil {
		l.logger.Error("model call failed",
			"agent", ctx.AgentName(), "invocation_id", ctx.InvocationID(), "err", respErr)
		return resp, respErr
	}
	parts := 0
	if resp != nil && resp.Content != nil {
		parts = len(resp.Content.Parts)
	}
	l.logger.Info("model call finished",
		"agent", ctx.AgentName(), "invocation_id", ctx.InvocationID(), "parts", parts)
	return resp, respErr
}

// BeforeTool logs a tool invocation with its argument keys. Argument values
// are logged at debug only since they may carry user data.
func (l *LoggingCallbacks) BeforeTool(ctx tool.Context, t tool.Tool, args map[string]any) (map[string]any, error) {
	l.logger.Info("tool call starting",
		"tool", t.Name(), "agent", ctx.AgentName(), "invocation_id", ctx.InvocationID())
	l.logger.Debug("tool args", "tool", t.Name(), "args", args)
	return nil, nil
}

// AfterTool logs the completion of a tool invocation.
func (l *LoggingCallbacks) AfterTool(ctx tool.Context, t tool.Tool, args, result map[string]any, callErr error) (map[string]any, error) {
	if callErr != nil {
		l.logger.Error("tool call failed",
			"tool", t.Name(), "agent", ctx.AgentName(), "invocation_id", ctx.InvocationID(), "err", callErr)
		return nil, callErr
	}
	l.logger.Info("tool call finished",
		"tool", t.Name(), "agent", ctx.AgentName(), "invocation_id", ctx.InvocationID())
	l.logger.Debug("tool result", "tool", t.Name(), "result", result)
	return nil, nil
}
