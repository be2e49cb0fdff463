package main

import (
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"bqagent/internal/auth"
)

const maxResultRows = 50

// bqToolset builds the BigQuery tools for a single project and dataset.
// A client is created per call because the credential may come from the
// platform session rather than the process environment.
type bqToolset struct {
	project  string
	dataset  string
	resolver *auth.Resolver
}

func newBQToolset(project, dataset string, resolver *auth.Resolver) *bqToolset {
	return &bqToolset{project: project, dataset: dataset, resolver: resolver}
}

func (s *bqToolset) client(ctx tool.Context) (*bigquery.Client, error) {
	cred, err := s.resolver.Resolve(ctx, ctx.State())
	if err != nil {
		return nil, fmt.Errorf("resolving BigQuery credential: %w", err)
	}
	client, err := bigquery.NewClient(ctx, s.project, option.WithTokenSource(cred))
	if err != nil {
		return nil, fmt.Errorf("creating BigQuery client: %w", err)
	}
	return client, nil
}

// BQResult is the standard output type for the BigQuery tools. Failures are
// returned as error results rather than Go errors so the model can see them
// and correct course.
type BQResult struct {
	Status       string           `json:"status"`
	Report       string           `json:"report,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

func bqError(format string, args ...any) BQResult {
	return BQResult{Status: "error", ErrorMessage: fmt.Sprintf(format, args...)}
}

// datasetOr returns the dataset from args, or the configured default.
func (s *bqToolset) datasetOr(dataset string) string {
	if dataset != "" {
		return dataset
	}
	return s.dataset
}

// ListDatasetIDsArgs defines arguments for the list_dataset_ids tool.
type ListDatasetIDsArgs struct{}

func (s *bqToolset) listDatasetIDsTool(ctx tool.Context, args ListDatasetIDsArgs) (BQResult, error) {
	client, err := s.client(ctx)
	if err != nil {
		return bqError("%v", err), nil
	}
	defer client.Close()

	it := client.Datasets(ctx)
	var ids []string
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return bqError("listing datasets in %s: %v", s.project, err), nil
		}
		ids = append(ids, ds.DatasetID)
	}
	if len(ids) == 0 {
		return BQResult{Status: "success", Report: fmt.Sprintf("Project %s contains no datasets.", s.project)}, nil
	}
	return BQResult{
		Status: "success",
		Report: fmt.Sprintf("Datasets in %s: %s", s.project, strings.Join(ids, ", ")),
	}, nil
}

// ListTableIDsArgs defines arguments for the list_table_ids tool.
type ListTableIDsArgs struct {
	Dataset string `json:"dataset,omitempty" jsonschema:"Dataset id to list tables from. Defaults to the allowed dataset."`
}

func (s *bqToolset) listTableIDsTool(ctx tool.Context, args ListTableIDsArgs) (BQResult, error) {
	dataset := s.datasetOr(args.Dataset)
	client, err := s.client(ctx)
	if err != nil {
		return bqError("%v", err), nil
	}
	defer client.Close()

	it := client.Dataset(dataset).Tables(ctx)
	var names []string
	for {
		table, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return bqError("listing tables in %s.%s: %v", s.project, dataset, err), nil
		}
		names = append(names, table.TableID)
	}
	if len(names) == 0 {
		return BQResult{Status: "success", Report: fmt.Sprintf("Dataset %s.%s contains no tables.", s.project, dataset)}, nil
	}
	return BQResult{
		Status: "success",
		Report: fmt.Sprintf("Tables in %s.%s: %s", s.project, dataset, strings.Join(names, ", ")),
	}, nil
}

// GetDatasetInfoArgs defines arguments for the get_dataset_info tool.
type GetDatasetInfoArgs struct {
	Dataset string `json:"dataset,omitempty" jsonschema:"Dataset id to describe. Defaults to the allowed dataset."`
}

func (s *bqToolset) getDatasetInfoTool(ctx tool.Context, args GetDatasetInfoArgs) (BQResult, error) {
	dataset := s.datasetOr(args.Dataset)
	client, err := s.client(ctx)
	if err != nil {
		return bqError("%v", err), nil
	}
	defer client.Close()

	md, err := client.Dataset(dataset).Metadata(ctx)
	if err != nil {
		return bqError("describing dataset %s: %v", dataset, err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Dataset %s.%s (location %s)\n", s.project, dataset, md.Location)
	if md.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", md.Description)
	}
	fmt.Fprintf(&sb, "Last modified: %s\n", md.LastModifiedTime.Format("2006-01-02 15:04:05 MST"))
	return BQResult{Status: "success", Report: sb.String()}, nil
}

// GetTableInfoArgs defines arguments for the get_table_info tool.
type GetTableInfoArgs struct {
	Table   string `json:"table" jsonschema:"Unqualified table name."`
	Dataset string `json:"dataset,omitempty" jsonschema:"Dataset id the table belongs to. Defaults to the allowed dataset."`
}

func (s *bqToolset) getTableInfoTool(ctx tool.Context, args GetTableInfoArgs) (BQResult, error) {
	if args.Table == "" {
		return bqError("table name is required"), nil
	}
	dataset := s.datasetOr(args.Dataset)
	client, err := s.client(ctx)
	if err != nil {
		return bqError("%v", err), nil
	}
	defer client.Close()

	md, err := client.Dataset(dataset).Table(args.Table).Metadata(ctx)
	if err != nil {
		return bqError("describing table %s: %v", args.Table, err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Table %s.%s.%s (%d rows)\n", s.project, dataset, args.Table, md.NumRows)
	if md.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", md.Description)
	}
	sb.WriteString("Columns:\n")
	for _, field := range md.Schema {
		fmt.Fprintf(&sb, "- %s %s", field.Name, field.Type)
		if field.Repeated {
			sb.WriteString(" (repeated)")
		}
		if field.Description != "" {
			fmt.Fprintf(&sb, ": %s", field.Description)
		}
		sb.WriteString("\n")
	}
	return BQResult{Status: "success", Report: sb.String()}, nil
}

// ExecuteSQLArgs defines arguments for the execute_sql tool.
type ExecuteSQLArgs struct {
	Query string `json:"query" jsonschema:"A single read-only GoogleSQL SELECT statement."`
}

func (s *bqToolset) executeSQLTool(ctx tool.Context, args ExecuteSQLArgs) (BQResult, error) {
	if err := checkReadOnly(args.Query); err != nil {
		return bqError("%v", err), nil
	}
	client, err := s.client(ctx)
	if err != nil {
		return bqError("%v", err), nil
	}
	defer client.Close()

	q := client.Query(args.Query)
	q.DefaultProjectID = s.project
	q.DefaultDatasetID = s.dataset
	it, err := q.Read(ctx)
	if err != nil {
		return bqError("running query: %v", err), nil
	}

	var rows []map[string]any
	for len(rows) < maxResultRows {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return bqError("reading query results: %v", err), nil
		}
		converted := make(map[string]any, len(row))
		for k, v := range row {
			converted[k] = v
		}
		rows = append(rows, converted)
	}

	result := BQResult{Status: "success", Rows: rows}
	if len(rows) == maxResultRows {
		result.Report = fmt.Sprintf("Result truncated to the first %d rows.", maxResultRows)
	}
	return result, nil
}

// checkReadOnly rejects anything that is not a single SELECT statement.
// Write access stays blocked regardless of what the credential allows.
func checkReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("query is empty")
	}
	trimmed = strings.TrimSuffix(trimmed, ";")
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("only a single statement is allowed")
	}
	first := strings.ToUpper(strings.Fields(trimmed)[0])
	switch first {
	case "SELECT", "WITH":
		return nil
	default:
		return fmt.Errorf("only read-only SELECT queries are allowed, got %s", first)
	}
}

// tools returns the BigQuery tools for the agent.
func (s *bqToolset) tools() ([]tool.Tool, error) {
	listDatasets, err := functiontool.New(functiontool.Config{
		Name:        "list_dataset_ids",
		Description: "List the BigQuery dataset ids available in the project.",
	}, s.listDatasetIDsTool)
	if err != nil {
		return nil, fmt.Errorf("creating list_dataset_ids tool: %w", err)
	}
	listTables, err := functiontool.New(functiontool.Config{
		Name:        "list_table_ids",
		Description: "List the table ids in a BigQuery dataset.",
	}, s.listTableIDsTool)
	if err != nil {
		return nil, fmt.Errorf("creating list_table_ids tool: %w", err)
	}
	datasetInfo, err := functiontool.New(functiontool.Config{
		Name:        "get_dataset_info",
		Description: "Show the description and location of a BigQuery dataset.",
	}, s.getDatasetInfoTool)
	if err != nil {
		return nil, fmt.Errorf("creating get_dataset_info tool: %w", err)
	}
	tableInfo, err := functiontool.New(functiontool.Config{
		Name:        "get_table_info",
		Description: "Show the schema, row count, and column descriptions of a BigQuery table.",
	}, s.getTableInfoTool)
	if err != nil {
		return nil, fmt.Errorf("creating get_table_info tool: %w", err)
	}
	executeSQL, err := functiontool.New(functiontool.Config{
		Name:        "execute_sql",
		Description: "Run a single read-only SELECT query against BigQuery and return the rows.",
	}, s.executeSQLTool)
	if err != nil {
		return nil, fmt.Errorf("creating execute_sql tool: %w", err)
	}
	return []tool.Tool{listDatasets, listTables, datasetInfo, tableInfo, executeSQL}, nil
}
