// Package main initializes a repository created from the agent template.
// It detects the new repository name from the git remote, validates it, and
// rewrites the module path and agent name throughout the tree. Run once
// after creating a repository from the template.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"bqagent/internal/logging"
)

// templateModule is the module path this template ships with.
const templateModule = "bqagent"

var repoNameRE = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// validateRepoName checks that name is kebab-case: lowercase letters,
// digits, and single hyphens, not starting or ending with a hyphen.
func validateRepoName(name string) error {
	if !repoNameRE.MatchString(name) {
		return fmt.Errorf("repository name %q is not kebab-case (lowercase letters, digits, hyphens; no leading/trailing hyphen)", name)
	}
	return nil
}

var (
	sshRemoteRE   = regexp.MustCompile(`^git@github\.com:([^/]+)/(.+?)(?:\.git)?$`)
	httpsRemoteRE = regexp.MustCompile(`^https://github\.com/([^/]+)/(.+?)(?:\.git)?$`)
)

// parseGitHubRemote extracts owner and repo from an SSH or HTTPS GitHub
// remote URL.
func parseGitHubRemote(url string) (owner, repo string, ok bool) {
	for _, re := range []*regexp.Regexp{sshRemoteRE, httpsRemoteRE} {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

// detectRepoName reads the repository name from the origin remote.
func detectRepoName(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", fmt.Errorf("reading git remote (is this a cloned repository with an origin remote?): %w", err)
	}
	url := strings.TrimSpace(string(out))
	_, repo, ok := parseGitHubRemote(url)
	if !ok {
		return "", fmt.Errorf("origin remote %q is not a GitHub URL", url)
	}
	return repo, nil
}

// rewriteFile applies replacements to one file. It reports whether the file
// changed. In dry-run mode nothing is written.
func rewriteFile(path string, replacements map[string]string, dryRun bool) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	content := string(data)
	modified := content
	for from, to := range replacements {
		modified = strings.ReplaceAll(modified, from, to)
	}
	if modified == content {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(path, []byte(modified), info.Mode().Perm())
}

// rewritableFile reports whether path is a file the initializer should touch.
func rewritableFile(path string) bool {
	switch filepath.Ext(path) {
	case ".go", ".mod", ".md", ".txt", ".yaml", ".yml":
		return true
	}
	base := filepath.Base(path)
	return base == ".env" || base == ".env.example"
}

// initialize walks root and rewrites every eligible file.
func initialize(root, repoName string, dryRun bool) (changed []string, err error) {
	replacements := map[string]string{
		templateModule + "/": repoName + "/", // import paths
		"module " + templateModule: "module " + repoName,
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !rewritableFile(path) {
			return nil
		}
		did, err := rewriteFile(path, replacements, dryRun)
		if err != nil {
			return fmt.Errorf("rewriting %s: %w", path, err)
		}
		if did {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			changed = append(changed, rel)
		}
		return nil
	})
	return changed, err
}

// Result log file names, one per mode.
const (
	dryRunLogFile = "init_template_dry_run.md"
	resultLogFile = "init_template_results.md"
)

// writeResultLog records what the run did (or would do) in a markdown file
// next to the repository root, so the change survives in the first commit.
func writeResultLog(repoName string, changed []string, dryRun bool) error {
	logFile := resultLogFile
	verb := "Updated"
	if dryRun {
		logFile = dryRunLogFile
		verb = "Would update"
	}

	var sb strings.Builder
	sb.WriteString("# Template Initialization Log\n\n")
	fmt.Fprintf(&sb, "**Timestamp:** %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&sb, "**Repository name:** %s\n\n---\n\n", repoName)
	if len(changed) == 0 {
		sb.WriteString("No files needed changes.\n")
	}
	for _, path := range changed {
		fmt.Fprintf(&sb, "- %s `%s`\n", verb, path)
	}
	return os.WriteFile(logFile, []byte(sb.String()), 0o644)
}

func main() {
	args := logging.Init(os.Args[1:])

	flags := flag.NewFlagSet("inittemplate", flag.ExitOnError)
	dryRun := flags.Bool("dry-run", false, "report planned changes without writing anything")
	name := flags.String("name", "", "repository name override (default: detected from the origin remote)")
	flags.Parse(args)

	ctx := context.Background()

	repoName := *name
	if repoName == "" {
		detected, err := detectRepoName(ctx)
		if err != nil {
			slog.Error("failed to detect repository name", "err", err)
			os.Exit(1)
		}
		repoName = detected
		slog.Info("detected repository name", "name", repoName)
	}
	if err := validateRepoName(repoName); err != nil {
		slog.Error("invalid repository name; create the repository again with a kebab-case name", "err", err)
		os.Exit(1)
	}
	if repoName == templateModule {
		slog.Info("repository already uses the template name, nothing to do")
		return
	}

	changed, err := initialize(".", repoName, *dryRun)
	if err != nil {
		slog.Error("initialization failed", "err", err)
		os.Exit(1)
	}
	for _, path := range changed {
		if *dryRun {
			fmt.Printf("would update %s\n", path)
		} else {
			fmt.Printf("updated %s\n", path)
		}
	}
	if err := writeResultLog(repoName, changed, *dryRun); err != nil {
		slog.Warn("failed to write result log", "err", err)
	}
	slog.Info("template initialized",
		"module", repoName, "files_changed", len(changed), "dry_run", *dryRun)
}
