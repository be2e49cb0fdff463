package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PickleFile)
	writeFile(t, dir, RequirementsFile)

	files, err := discoverArtifacts(dir)
	if err != nil {
		t.Fatalf("discoverArtifacts: %v", err)
	}
	want := []string{PickleFile, RequirementsFile}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestDiscoverArtifactsAllPresent(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{PickleFile, RequirementsFile, DependenciesFile} {
		writeFile(t, dir, name)
	}

	files, err := discoverArtifacts(dir)
	if err != nil {
		t.Fatalf("discoverArtifacts: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("files = %v, want all three artifacts", files)
	}
}

func TestDiscoverArtifactsRequiresPickle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RequirementsFile)

	if _, err := discoverArtifacts(dir); err == nil {
		t.Error("discoverArtifacts accepted a build dir without the agent pickle")
	}
}

func TestDescribeBucketErrPermissionDenied(t *testing.T) {
	apiErr := &googleapi.Error{Code: 403, Message: "does not have storage.buckets.get access"}
	err := describeBucketErr(fmt.Errorf("wrapped: %w", apiErr))
	if !errors.Is(err, apiErr) {
		t.Errorf("describeBucketErr lost the underlying error: %v", err)
	}
	if !strings.Contains(err.Error(), "storage.buckets.get") || !strings.Contains(err.Error(), "roles/storage.admin") {
		t.Errorf("error = %q, want mention of the missing permission and a role to grant", err)
	}
}

func TestDescribeBucketErrPassThrough(t *testing.T) {
	var apiErr error = &googleapi.Error{Code: 500, Message: "backend error"}
	if got := describeBucketErr(apiErr); got != apiErr {
		t.Errorf("describeBucketErr(500) = %v, want the error unchanged", got)
	}

	plain := errors.New("dial tcp: connection refused")
	if got := describeBucketErr(plain); got != plain {
		t.Errorf("describeBucketErr(plain) = %v, want the error unchanged", got)
	}
}
