// Package engine manages the lifecycle of Vertex AI Agent Engine
// (reasoning engine) deployments.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

const (
	defaultPythonVersion = "3.12"
	agentFramework       = "google-adk"
)

// Spec describes one agent engine deployment. The GCS URIs point at the
// staged build artifacts.
type Spec struct {
	DisplayName     string
	Description     string
	PickleURI       string
	RequirementsURI string
	DependenciesURI string
	PythonVersion   string
	// EnvVars are plain environment variables passed to the deployed agent.
	EnvVars map[string]string
}

// Client wraps the reasoning engine admin API for a single project and
// location.
type Client struct {
	engines  *aiplatform.ReasoningEngineClient
	project  string
	location string
}

// NewClient dials the regional Vertex AI endpoint for location.
func NewClient(ctx context.Context, project, location string, opts ...option.ClientOption) (*Client, error) {
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}

	opts = append([]option.ClientOption{
		option.WithEndpoint(location + "-aiplatform.googleapis.com:443"),
	}, opts...)
	engines, err := aiplatform.NewReasoningEngineClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating reasoning engine client: %w", err)
	}
	return &Client{engines: engines, project: project, location: location}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.engines.Close()
}

func (c *Client) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.project, c.location)
}

func (c *Client) proto(spec Spec) *aiplatformpb.ReasoningEngine {
	pythonVersion := spec.PythonVersion
	if pythonVersion == "" {
		pythonVersion = defaultPythonVersion
	}
	packageSpec := &aiplatformpb.ReasoningEngineSpec_PackageSpec{
		PickleObjectGcsUri: spec.PickleURI,
		PythonVersion:      pythonVersion,
	}
	if spec.RequirementsURI != "" {
		packageSpec.RequirementsGcsUri = spec.RequirementsURI
	}
	if spec.DependenciesURI != "" {
		packageSpec.DependencyFilesGcsUri = spec.DependenciesURI
	}

	deploymentSpec := &aiplatformpb.ReasoningEngineSpec_DeploymentSpec{}
	for name, value := range spec.EnvVars {
		deploymentSpec.Env = append(deploymentSpec.Env, &aiplatformpb.EnvVar{
			Name: name, Value: value,
		})
	}

	return &aiplatformpb.ReasoningEngine{
		DisplayName: spec.DisplayName,
		Description: spec.Description,
		Spec: &aiplatformpb.ReasoningEngineSpec{
			PackageSpec:    packageSpec,
			DeploymentSpec: deploymentSpec,
			AgentFramework: agentFramework,
		},
	}
}

// Create deploys a new agent engine and blocks until the long running
// operation completes.
func (c *Client) Create(ctx context.Context, spec Spec) (*aiplatformpb.ReasoningEngine, error) {
	slog.Info("creating agent engine",
		"display_name", spec.DisplayName, "parent", c.parent())

	op, err := c.engines.CreateReasoningEngine(ctx, &aiplatformpb.CreateReasoningEngineRequest{
		Parent:          c.parent(),
		ReasoningEngine: c.proto(spec),
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent engine: %w", err)
	}
	created, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for agent engine creation: %w", err)
	}
	slog.Info("agent engine created", "name", created.GetName())
	return created, nil
}

// Update redeploys an existing agent engine in place. name is the full
// resource name. Blocks until the operation completes.
func (c *Client) Update(ctx context.Context, name string, spec Spec) (*aiplatformpb.ReasoningEngine, error) {
	slog.Info("updating agent engine", "name", name)

	updated := c.proto(spec)
	updated.Name = name
	op, err := c.engines.UpdateReasoningEngine(ctx, &aiplatformpb.UpdateReasoningEngineRequest{
		ReasoningEngine: updated,
		UpdateMask: &fieldmaskpb.FieldMask{
			Paths: []string{"display_name", "description", "spec"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("updating agent engine: %w", err)
	}
	result, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for agent engine update: %w", err)
	}
	slog.Info("agent engine updated", "name", result.GetName())
	return result, nil
}

// Get fetches an agent engine by full resource name.
func (c *Client) Get(ctx context.Context, name string) (*aiplatformpb.ReasoningEngine, error) {
	engine, err := c.engines.GetReasoningEngine(ctx, &aiplatformpb.GetReasoningEngineRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("fetching agent engine %s: %w", name, err)
	}
	return engine, nil
}

// List returns all agent engines in the project and location.
func (c *Client) List(ctx context.Context) ([]*aiplatformpb.ReasoningEngine, error) {
	it := c.engines.ListReasoningEngines(ctx, &aiplatformpb.ListReasoningEnginesRequest{
		Parent: c.parent(),
	})
	var engines []*aiplatformpb.ReasoningEngine
	for {
		engine, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing agent engines: %w", err)
		}
		engines = append(engines, engine)
	}
	return engines, nil
}

// Delete removes an agent engine. force also deletes child resources such
// as sessions. Blocks until the operation completes.
func (c *Client) Delete(ctx context.Context, name string, force bool) error {
	slog.Info("deleting agent engine", "name", name, "force", force)

	op, err := c.engines.DeleteReasoningEngine(ctx, &aiplatformpb.DeleteReasoningEngineRequest{
		Name:  name,
		Force: force,
	})
	if err != nil {
		return fmt.Errorf("deleting agent engine: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for agent engine deletion: %w", err)
	}
	slog.Info("agent engine deleted", "name", name)
	return nil
}
