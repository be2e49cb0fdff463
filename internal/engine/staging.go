package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// Build artifact names inside the agent build directory.
const (
	PickleFile       = "agent_engine.pkl"
	RequirementsFile = "requirements.txt"
	DependenciesFile = "dependencies.tar.gz"
)

// Artifacts holds the gs:// URIs of staged build artifacts.
type Artifacts struct {
	PickleURI       string
	RequirementsURI string
	DependenciesURI string
}

// Stager uploads agent build artifacts to a GCS staging bucket, creating
// the bucket on first use.
type Stager struct {
	client  *storage.Client
	project string
	bucket  string
	dir     string
}

// NewStager returns a stager writing under gs://bucket/dir.
func NewStager(ctx context.Context, project, bucket, dir string) (*Stager, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &Stager{client: client, project: project, bucket: bucket, dir: dir}, nil
}

// Close releases the storage client.
func (s *Stager) Close() error {
	return s.client.Close()
}

// EnsureBucket creates the staging bucket if it does not exist. New buckets
// get uniform access and public access prevention.
func (s *Stager) EnsureBucket(ctx context.Context, location string) error {
	bucket := s.client.Bucket(s.bucket)
	_, err := bucket.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("checking staging bucket %s: %w", s.bucket, describeBucketErr(err))
	}

	slog.Info("creating staging bucket", "bucket", s.bucket, "location", location)
	attrs := &storage.BucketAttrs{
		Location:                 location,
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{Enabled: true},
		PublicAccessPrevention:   storage.PublicAccessPreventionEnforced,
	}
	if err := bucket.Create(ctx, s.project, attrs); err != nil {
		// A concurrent deploy may have created it in the meantime.
		if _, attrsErr := bucket.Attrs(ctx); attrsErr == nil {
			return nil
		}
		return fmt.Errorf("creating staging bucket %s: %w", s.bucket, err)
	}
	return nil
}

// describeBucketErr augments access-denied errors with the permission the
// caller is missing. Other errors pass through unchanged.
func describeBucketErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 403 {
		return fmt.Errorf("%w (the caller needs storage.buckets.get on the bucket, e.g. via roles/storage.admin)", err)
	}
	return err
}

// discoverArtifacts lists the build artifacts present in buildDir. The
// pickled agent object is required; requirements and the dependency archive
// are included only when present.
func discoverArtifacts(buildDir string) ([]string, error) {
	if _, err := os.Stat(filepath.Join(buildDir, PickleFile)); err != nil {
		return nil, fmt.Errorf("required build artifact %s: %w", PickleFile, err)
	}
	files := []string{PickleFile}
	for _, name := range []string{RequirementsFile, DependenciesFile} {
		if _, err := os.Stat(filepath.Join(buildDir, name)); errors.Is(err, os.ErrNotExist) {
			slog.Debug("optional build artifact absent, skipping", "file", name)
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

// Upload stages the build artifacts found in buildDir.
func (s *Stager) Upload(ctx context.Context, buildDir string) (*Artifacts, error) {
	files, err := discoverArtifacts(buildDir)
	if err != nil {
		return nil, err
	}

	artifacts := &Artifacts{}
	for _, name := range files {
		uri, err := s.uploadFile(ctx, filepath.Join(buildDir, name), name)
		if err != nil {
			return nil, err
		}
		switch name {
		case PickleFile:
			artifacts.PickleURI = uri
		case RequirementsFile:
			artifacts.RequirementsURI = uri
		case DependenciesFile:
			artifacts.DependenciesURI = uri
		}
	}
	return artifacts, nil
}

func (s *Stager) uploadFile(ctx context.Context, path, name string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening build artifact: %w", err)
	}
	defer f.Close()

	object := s.dir + "/" + name
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing upload of %s: %w", name, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", s.bucket, object)
	slog.Info("staged build artifact", "uri", uri)
	return uri, nil
}
