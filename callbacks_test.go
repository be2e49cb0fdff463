package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func newTestCallbacks(buf *bytes.Buffer) *LoggingCallbacks {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &LoggingCallbacks{logger: logger}
}

func TestAgentCallbacksPassThrough(t *testing.T) {
	var buf bytes.Buffer
	cb := newTestCallbacks(&buf)
	ctx := mockToolContext{context.Background()}

	content, err := cb.BeforeAgent(ctx)
	if content != nil || err != nil {
		t.Errorf("BeforeAgent() = (%v, %v), want (nil, nil) so the run proceeds", content, err)
	}
	content, err = cb.AfterAgent(ctx)
	if content != nil || err != nil {
		t.Errorf("AfterAgent() = (%v, %v), want (nil, nil) so the response is kept", content, err)
	}

	logged := buf.String()
	for _, want := range []string{"agent turn starting", "agent turn finished", "test-agent", "test-invocation"} {
		if !strings.Contains(logged, want) {
			t.Errorf("log output missing %q:\n%s", want, logged)
		}
	}
}

func TestModelCallbacksPassThrough(t *testing.T) {
	var buf bytes.Buffer
	cb := newTestCallbacks(&buf)
	ctx := mockToolContext{context.Background()}

	resp, err := cb.BeforeModel(ctx, &model.LLMRequest{})
	if resp != nil || err != nil {
		t.Errorf("BeforeModel() = (%v, %v), want (nil, nil)", resp, err)
	}

	in := &model.LLMResponse{Content: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText("hi")}}}
	resp, err = cb.AfterModel(ctx, in, nil)
	if resp != in || err != nil {
		t.Errorf("AfterModel() = (%v, %v), want the original response unchanged", resp, err)
	}

	wantErr := errors.New("model unavailable")
	resp, err = cb.AfterModel(ctx, nil, wantErr)
	if resp != nil || !errors.Is(err, wantErr) {
		t.Errorf("AfterModel() with error = (%v, %v), want (nil, %v)", resp, err, wantErr)
	}
	if !strings.Contains(buf.String(), "model call failed") {
		t.Errorf("log output missing failure line:\n%s", buf.String())
	}
}
