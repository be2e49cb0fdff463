package main

import (
	"context"
	"strings"
	"testing"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/memory"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/toolconfirmation"
	"google.golang.org/genai"
)

// mockToolContext implements tool.Context for testing.
type mockToolContext struct {
	context.Context
}

// ReadonlyContext methods
func (mockToolContext) UserContent() *genai.Content          { return nil }
func (mockToolContext) InvocationID() string                 { return "test-invocation" }
func (mockToolContext) AgentName() string                    { return "test-agent" }
func (mockToolContext) ReadonlyState() session.ReadonlyState { return nil }
func (mockToolContext) UserID() string                       { return "test-user" }
func (mockToolContext) AppName() string                      { return "test-app" }
func (mockToolContext) SessionID() string                    { return "test-session" }
func (mockToolContext) Branch() string                       { return "" }

// CallbackContext methods
func (mockToolContext) Artifacts() agent.Artifacts { return nil }
func (mockToolContext) State() session.State       { return nil }

// tool.Context methods
func (mockToolContext) FunctionCallID() string         { return "test-call-id" }
func (mockToolContext) Actions() *session.EventActions { return nil }
func (mockToolContext) SearchMemory(context.Context, string) (*memory.SearchResponse, error) {
	return nil, nil
}
func (mockToolContext) ToolConfirmation() *toolconfirmation.ToolConfirmation { return nil }
func (mockToolContext) RequestConfirmation(string, any) error                { return nil }

func newTestContext() tool.Context {
	return mockToolContext{context.Background()}
}

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr string // substring expected in the error (empty = allowed)
	}{
		{name: "plain select", query: "SELECT * FROM orders LIMIT 10"},
		{name: "lowercase select", query: "select count(*) from orders"},
		{name: "cte", query: "WITH t AS (SELECT 1) SELECT * FROM t"},
		{name: "trailing semicolon", query: "SELECT 1;"},
		{name: "leading whitespace", query: "   \n SELECT 1"},
		{name: "empty", query: "   ", wantErr: "empty"},
		{name: "delete", query: "DELETE FROM orders", wantErr: "read-only"},
		{name: "update", query: "UPDATE orders SET x = 1", wantErr: "read-only"},
		{name: "insert", query: "INSERT INTO orders VALUES (1)", wantErr: "read-only"},
		{name: "ddl", query: "DROP TABLE orders", wantErr: "read-only"},
		{name: "multi statement", query: "SELECT 1; DELETE FROM orders", wantErr: "single statement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkReadOnly(tt.query)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("checkReadOnly(%q) = %v, want nil", tt.query, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("checkReadOnly(%q) = %v, want error containing %q", tt.query, err, tt.wantErr)
			}
		})
	}
}

func TestBQToolsetBuildsTools(t *testing.T) {
	toolset := newBQToolset("proj-1", "analytics", nil)
	tools, err := toolset.tools()
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	want := map[string]bool{
		"list_dataset_ids": false,
		"list_table_ids":   false,
		"get_dataset_info": false,
		"get_table_info":   false,
		"execute_sql":      false,
	}
	for _, tl := range tools {
		if _, ok := want[tl.Name()]; !ok {
			t.Errorf("unexpected tool %q", tl.Name())
			continue
		}
		want[tl.Name()] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestGetTableInfoRequiresName(t *testing.T) {
	toolset := newBQToolset("proj-1", "analytics", nil)
	result, err := toolset.getTableInfoTool(newTestContext(), GetTableInfoArgs{})
	if err != nil {
		t.Fatalf("getTableInfoTool: %v", err)
	}
	if result.Status != "error" || !strings.Contains(result.ErrorMessage, "required") {
		t.Errorf("result = %+v, want error about missing table name", result)
	}
}

func TestDatasetDefaulting(t *testing.T) {
	toolset := newBQToolset("proj-1", "analytics", nil)
	if got := toolset.datasetOr(""); got != "analytics" {
		t.Errorf("datasetOr(\"\") = %q, want configured default", got)
	}
	if got := toolset.datasetOr("other"); got != "other" {
		t.Errorf("datasetOr(\"other\") = %q, want explicit value", got)
	}
}

func TestExecuteSQLRejectsWritesBeforeDialing(t *testing.T) {
	// A nil resolver would panic if the tool tried to build a client, so
	// this also proves rejection happens before any network work.
	toolset := newBQToolset("proj-1", "analytics", nil)
	result, err := toolset.executeSQLTool(newTestContext(), ExecuteSQLArgs{Query: "TRUNCATE TABLE orders"})
	if err != nil {
		t.Fatalf("executeSQLTool: %v", err)
	}
	if result.Status != "error" || !strings.Contains(result.ErrorMessage, "read-only") {
		t.Errorf("result = %+v, want read-only rejection", result)
	}
}
