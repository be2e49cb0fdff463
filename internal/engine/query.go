package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// QueryClient sends queries to a deployed agent engine.
type QueryClient struct {
	exec *aiplatform.ReasoningEngineExecutionClient
}

// NewQueryClient dials the regional execution endpoint for location.
func NewQueryClient(ctx context.Context, location string, opts ...option.ClientOption) (*QueryClient, error) {
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}
	opts = append([]option.ClientOption{
		option.WithEndpoint(location + "-aiplatform.googleapis.com:443"),
	}, opts...)
	exec, err := aiplatform.NewReasoningEngineExecutionClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating execution client: %w", err)
	}
	return &QueryClient{exec: exec}, nil
}

// Close releases the underlying connection.
func (c *QueryClient) Close() error {
	return c.exec.Close()
}

func (c *QueryClient) call(ctx context.Context, name, method string, input map[string]any) (*structpb.Value, error) {
	in, err := structpb.NewStruct(input)
	if err != nil {
		return nil, fmt.Errorf("encoding %s input: %w", method, err)
	}
	resp, err := c.exec.QueryReasoningEngine(ctx, &aiplatformpb.QueryReasoningEngineRequest{
		Name:        name,
		Input:       in,
		ClassMethod: method,
	})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	return resp.GetOutput(), nil
}

// CreateSession starts a conversation session on the engine and returns its
// id. name is the full engine resource name.
func (c *QueryClient) CreateSession(ctx context.Context, name, userID string) (string, error) {
	out, err := c.call(ctx, name, "async_create_session", map[string]any{"user_id": userID})
	if err != nil {
		return "", err
	}
	id := out.GetStructValue().GetFields()["id"].GetStringValue()
	if id == "" {
		return "", fmt.Errorf("session create response carries no id")
	}
	return id, nil
}

// DeleteSession removes a conversation session.
func (c *QueryClient) DeleteSession(ctx context.Context, name, userID, sessionID string) error {
	_, err := c.call(ctx, name, "async_delete_session", map[string]any{
		"user_id":    userID,
		"session_id": sessionID,
	})
	return err
}

// streamEvent is the subset of an agent event needed to print model text.
type streamEvent struct {
	Content *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

// streamReader adapts the gRPC chunk stream to io.Reader so events can be
// decoded as they arrive, independent of chunk boundaries.
type streamReader struct {
	stream aiplatformpb.ReasoningEngineExecutionService_StreamQueryReasoningEngineClient
	buf    []byte
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		chunk, err := r.stream.Recv()
		if err != nil {
			return 0, err
		}
		r.buf = chunk.GetData()
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// StreamQuery sends one user message to the engine and calls onText for each
// text part in the streamed events. name is the full engine resource name.
func (c *QueryClient) StreamQuery(ctx context.Context, name, userID, sessionID, message string, onText func(string)) error {
	input, err := structpb.NewStruct(map[string]any{
		"user_id":    userID,
		"session_id": sessionID,
		"message":    message,
	})
	if err != nil {
		return fmt.Errorf("encoding query input: %w", err)
	}

	stream, err := c.exec.StreamQueryReasoningEngine(ctx, &aiplatformpb.StreamQueryReasoningEngineRequest{
		Name:        name,
		Input:       input,
		ClassMethod: "stream_query",
	})
	if err != nil {
		return fmt.Errorf("starting stream query: %w", err)
	}

	return decodeEvents(&streamReader{stream: stream}, onText)
}

// decodeEvents decodes the concatenated JSON events from r and passes every
// non-empty text part to onText.
func decodeEvents(r io.Reader, onText func(string)) error {
	dec := json.NewDecoder(r)
	for {
		var event streamEvent
		if err := dec.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decoding stream event: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part.Text != "" {
				onText(part.Text)
			}
		}
	}
}
