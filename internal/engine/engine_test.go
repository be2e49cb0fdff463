package engine

import "testing"

func TestSpecProto(t *testing.T) {
	c := &Client{project: "proj-1", location: "us-central1"}
	spec := Spec{
		DisplayName:     "Analytics Agent",
		Description:     "Answers questions over the analytics dataset",
		PickleURI:       "gs://stage/agents/agent_engine.pkl",
		RequirementsURI: "gs://stage/agents/requirements.txt",
		EnvVars:         map[string]string{"LOG_LEVEL": "DEBUG"},
	}

	pb := c.proto(spec)
	if pb.GetDisplayName() != spec.DisplayName {
		t.Errorf("DisplayName = %q", pb.GetDisplayName())
	}
	pkg := pb.GetSpec().GetPackageSpec()
	if pkg.GetPickleObjectGcsUri() != spec.PickleURI {
		t.Errorf("PickleObjectGcsUri = %q", pkg.GetPickleObjectGcsUri())
	}
	if pkg.GetRequirementsGcsUri() != spec.RequirementsURI {
		t.Errorf("RequirementsGcsUri = %q", pkg.GetRequirementsGcsUri())
	}
	if pkg.GetDependencyFilesGcsUri() != "" {
		t.Errorf("DependencyFilesGcsUri = %q, want empty", pkg.GetDependencyFilesGcsUri())
	}
	if pkg.GetPythonVersion() != defaultPythonVersion {
		t.Errorf("PythonVersion = %q, want default", pkg.GetPythonVersion())
	}
	if pb.GetSpec().GetAgentFramework() != agentFramework {
		t.Errorf("AgentFramework = %q", pb.GetSpec().GetAgentFramework())
	}

	env := pb.GetSpec().GetDeploymentSpec().GetEnv()
	if len(env) != 1 || env[0].GetName() != "LOG_LEVEL" || env[0].GetValue() != "DEBUG" {
		t.Errorf("Env = %v", env)
	}
}

func TestParent(t *testing.T) {
	c := &Client{project: "proj-1", location: "europe-west1"}
	want := "projects/proj-1/locations/europe-west1"
	if got := c.parent(); got != want {
		t.Errorf("parent() = %q, want %q", got, want)
	}
}
