// Package config validates process environment variables into immutable,
// per-operation configuration structs. Every deployment entry point loads
// exactly one of these at startup and never mutates it afterwards.
//
// Empty strings are treated the same as unset: CI systems export empty
// strings for repository variables that don't exist, which would otherwise
// defeat default-value fallbacks.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Common environment variable names.
const (
	envProject            = "GOOGLE_CLOUD_PROJECT"
	envLocation           = "GOOGLE_CLOUD_LOCATION"
	envAgentName          = "AGENT_NAME"
	envStorageBucket      = "GOOGLE_CLOUD_STORAGE_BUCKET"
	envGCSDirName         = "GCS_DIR_NAME"
	envDisplayName        = "AGENT_DISPLAY_NAME"
	envDescription        = "AGENT_DESCRIPTION"
	envEngineID           = "AGENT_ENGINE_ID"
	envLogLevel           = "LOG_LEVEL"
	envOTelCaptureContent = "OTEL_INSTRUMENTATION_GENAI_CAPTURE_MESSAGE_CONTENT"
	envOAuthClientID      = "OAUTH_CLIENT_ID"
	envOAuthClientSecret  = "OAUTH_CLIENT_SECRET"
	envPlatformAuthID     = "GEMINI_ENTERPRISE_AUTH_ID"
	envAppID              = "AGENTSPACE_APP_ID"
	envAppLocation        = "AGENTSPACE_APP_LOCATION"
	envAPIVersion         = "API_VERSION"
	envAuthID             = "AUTH_ID"
	envAuthLocation       = "AUTH_LOCATION"
	envOAuthAuthURI       = "OAUTH_AUTH_URI"
	envOAuthTokenURI      = "OAUTH_TOKEN_URI"
	envOAuthScopes        = "OAUTH_SCOPES"
	envOAuthAudience      = "OAUTH_AUDIENCE"
	envOAuthPrompt        = "OAUTH_PROMPT"
	envBuildDir           = "AGENT_BUILD_DIR"
	envRootAgentModel     = "ROOT_AGENT_MODEL"
	envDatasetID          = "BIGQUERY_DATASET_ID"
)

// Defaults for optional fields.
const (
	defaultGCSDirName  = "agent-engine-staging"
	defaultDisplayName = "ADK Agent"
	defaultDescription = "ADK Agent"
	defaultLogLevel    = "INFO"
	defaultAPIVersion  = "v1alpha"
	defaultAuthLoc     = "global"
	defaultModel       = "gemini-2.5-flash"
	defaultDataset     = "analytics"
)

// ValidationError reports every required environment variable that was
// missing (or empty) during a single load.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("environment validation failed:\n")
	for _, name := range e.Missing {
		fmt.Fprintf(&sb, "  %s: required but not set\n", name)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// env wraps a viper instance and accumulates missing required keys so a
// single load reports every problem at once.
type env struct {
	v       *viper.Viper
	missing []string
}

// NewEnv builds the standard environment source: an optional .env file in the
// working directory plus the process environment (process env wins).
func NewEnv() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			slog.Warn("ignoring unreadable .env file", "err", err)
		}
	}
	v.AutomaticEnv()
	return v
}

func (e *env) require(key string) string {
	s := strings.TrimSpace(e.v.GetString(key))
	if s == "" {
		e.missing = append(e.missing, key)
	}
	return s
}

func (e *env) optional(key, fallback string) string {
	if s := strings.TrimSpace(e.v.GetString(key)); s != "" {
		return s
	}
	return fallback
}

func (e *env) err() error {
	if len(e.missing) == 0 {
		return nil
	}
	return &ValidationError{Missing: e.missing}
}

// Base holds fields required by most deployment operations.
type Base struct {
	Project   string
	Location  string
	AgentName string
}

func loadBase(e *env) Base {
	return Base{
		Project:   e.require(envProject),
		Location:  e.require(envLocation),
		AgentName: e.require(envAgentName),
	}
}

// ServiceAccount returns the Agent Engine service account email. The account
// must already exist with the required IAM roles.
func (b Base) ServiceAccount() string {
	return fmt.Sprintf("%s-app@%s.iam.gserviceaccount.com", b.AgentName, b.Project)
}

// ReasoningEngine returns the full reasoning engine resource name for the
// given engine id.
func (b Base) ReasoningEngine(engineID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/reasoningEngines/%s", b.Project, b.Location, engineID)
}

// Deploy configures deploy and update operations.
type Deploy struct {
	Base
	StorageBucket      string
	GCSDirName         string
	DisplayName        string
	Description        string
	EngineID           string // empty for new deployments
	LogLevel           string
	OTelCaptureContent string
	OAuthClientID      string
	OAuthClientSecret  string
	PlatformAuthID     string
	BuildDir           string
}

// LoadDeploy validates the environment for a deploy/update run.
func LoadDeploy(v *viper.Viper) (*Deploy, error) {
	e := &env{v: v}
	cfg := &Deploy{
		Base:               loadBase(e),
		StorageBucket:      e.require(envStorageBucket),
		GCSDirName:         e.optional(envGCSDirName, defaultGCSDirName),
		DisplayName:        e.optional(envDisplayName, defaultDisplayName),
		Description:        e.optional(envDescription, defaultDescription),
		EngineID:           e.optional(envEngineID, ""),
		LogLevel:           e.optional(envLogLevel, defaultLogLevel),
		OTelCaptureContent: e.optional(envOTelCaptureContent, "true"),
		OAuthClientID:      e.optional(envOAuthClientID, ""),
		OAuthClientSecret:  e.optional(envOAuthClientSecret, ""),
		PlatformAuthID:     e.optional(envPlatformAuthID, ""),
		BuildDir:           e.optional(envBuildDir, "."),
	}
	if err := e.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AgentEnvVars returns the runtime environment for the deployed engine.
// OAuth credentials are only propagated when configured.
func (d *Deploy) AgentEnvVars() map[string]string {
	vars := map[string]string{
		envAgentName:          d.AgentName,
		envLogLevel:           d.LogLevel,
		envOTelCaptureContent: d.OTelCaptureContent,
	}
	if d.OAuthClientID != "" {
		vars[envOAuthClientID] = d.OAuthClientID
	}
	if d.OAuthClientSecret != "" {
		vars[envOAuthClientSecret] = d.OAuthClientSecret
	}
	if d.PlatformAuthID != "" {
		vars[envPlatformAuthID] = d.PlatformAuthID
	}
	return vars
}

// LogConfig emits the deployment configuration for operator verification,
// masking secrets.
func (d *Deploy) LogConfig() {
	slog.Info("deployment configuration",
		"project", d.Project,
		"location", d.Location,
		"bucket", d.StorageBucket,
		"agent_name", d.AgentName,
		"gcs_dir_name", d.GCSDirName,
		"display_name", d.DisplayName,
		"engine_id", d.EngineID,
		"service_account", d.ServiceAccount(),
		"oauth_client_id", mask(d.OAuthClientID),
		"oauth_client_secret", mask(d.OAuthClientSecret),
		"platform_auth_id", d.PlatformAuthID,
	)
}

// Delete configures reasoning engine deletion.
type Delete struct {
	Base
	EngineID string
}

// LoadDelete validates the environment for a delete run.
func LoadDelete(v *viper.Viper) (*Delete, error) {
	e := &env{v: v}
	cfg := &Delete{
		Base:     loadBase(e),
		EngineID: e.require(envEngineID),
	}
	if err := e.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Register configures Agentspace registration operations.
type Register struct {
	Base
	EngineID    string
	AppID       string
	AppLocation string
	APIVersion  string
	DisplayName string
	Description string

	// OAuth authorization resource settings (optional as a group).
	OAuthClientID     string
	OAuthClientSecret string
	AuthID            string
	AuthLocation      string
	OAuthAuthURI      string
	OAuthTokenURI     string
	OAuthScopes       string
	OAuthAudience     string
	OAuthPrompt       string
}

// LoadRegister validates the environment for register/unregister/list runs.
func LoadRegister(v *viper.Viper) (*Register, error) {
	e := &env{v: v}
	cfg := &Register{
		Base:              loadBase(e),
		EngineID:          e.require(envEngineID),
		AppID:             e.require(envAppID),
		AppLocation:       e.require(envAppLocation),
		APIVersion:        e.optional(envAPIVersion, defaultAPIVersion),
		DisplayName:       e.optional(envDisplayName, defaultDisplayName),
		Description:       e.optional(envDescription, defaultDescription),
		OAuthClientID:     e.optional(envOAuthClientID, ""),
		OAuthClientSecret: e.optional(envOAuthClientSecret, ""),
		AuthID:            e.optional(envAuthID, ""),
		AuthLocation:      e.optional(envAuthLocation, defaultAuthLoc),
		OAuthAuthURI:      e.optional(envOAuthAuthURI, ""),
		OAuthTokenURI:     e.optional(envOAuthTokenURI, ""),
		OAuthScopes:       e.optional(envOAuthScopes, ""),
		OAuthAudience:     e.optional(envOAuthAudience, ""),
		OAuthPrompt:       e.optional(envOAuthPrompt, ""),
	}
	if err := e.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReasoningEngine returns the full resource name of the engine being
// registered.
func (r *Register) ReasoningEngine() string {
	return r.Base.ReasoningEngine(r.EngineID)
}

// Host returns the Discovery Engine API host for the app location. The
// global location uses the bare host; every other location is a regional
// prefix.
func Host(location string) string {
	if location == "global" {
		return "discoveryengine.googleapis.com"
	}
	return location + "-discoveryengine.googleapis.com"
}

// Endpoint returns the Discovery Engine agents collection endpoint for the
// configured Agentspace app.
func (r *Register) Endpoint() string {
	return fmt.Sprintf(
		"https://%s/%s/projects/%s/locations/%s/collections/default_collection/engines/%s/assistants/default_assistant/agents",
		Host(r.AppLocation), r.APIVersion, r.Project, r.AppLocation, r.AppID,
	)
}

// AuthorizationName returns the authorization resource name for the
// configured auth id.
func (r *Register) AuthorizationName() string {
	return fmt.Sprintf("projects/%s/locations/%s/authorizations/%s", r.Project, r.AuthLocation, r.AuthID)
}

// AuthorizationEndpoint returns the URL of the authorization resource itself
// (PATCH/DELETE target).
func (r *Register) AuthorizationEndpoint() string {
	return fmt.Sprintf("https://%s/%s/%s", Host(r.AuthLocation), r.APIVersion, r.AuthorizationName())
}

// AuthorizationURI assembles the provider authorization URL with the
// response_type and any optional scope/audience/prompt parameters encoded.
func (r *Register) AuthorizationURI() string {
	params := url.Values{}
	params.Set("response_type", "code")
	if r.OAuthAudience != "" {
		params.Set("audience", r.OAuthAudience)
	}
	if r.OAuthPrompt != "" {
		params.Set("prompt", r.OAuthPrompt)
	}
	if r.OAuthScopes != "" {
		params.Set("scope", r.OAuthScopes)
	}
	return r.OAuthAuthURI + "?" + params.Encode()
}

// AuthorizationConfigured reports whether the full OAuth variable group is
// present. MissingAuthorizationVars lists the gaps for partial configs.
func (r *Register) AuthorizationConfigured() bool {
	return len(r.MissingAuthorizationVars()) == 0
}

// AuthorizationRequested reports whether any variable of the OAuth group is
// set. A partially set group is treated as a configuration mistake by the
// callers rather than silently registering without authorization.
func (r *Register) AuthorizationRequested() bool {
	return len(r.MissingAuthorizationVars()) < authGroupSize
}

// authGroupSize is the number of variables in the OAuth authorization group.
const authGroupSize = 5

// MissingAuthorizationVars returns the names of unset variables from the
// OAuth authorization group. An empty result means fully configured; a
// result covering the whole group means OAuth is simply not in use.
func (r *Register) MissingAuthorizationVars() []string {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{envAuthID, r.AuthID},
		{envOAuthClientID, r.OAuthClientID},
		{envOAuthClientSecret, r.OAuthClientSecret},
		{envOAuthAuthURI, r.OAuthAuthURI},
		{envOAuthTokenURI, r.OAuthTokenURI},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// LogConfig emits the registration configuration for operator verification.
func (r *Register) LogConfig() {
	slog.Info("registration configuration",
		"project", r.Project,
		"location", r.Location,
		"api_version", r.APIVersion,
		"app_id", r.AppID,
		"app_location", r.AppLocation,
		"engine_id", r.EngineID,
		"display_name", r.DisplayName,
		"reasoning_engine", r.ReasoningEngine(),
		"endpoint", r.Endpoint(),
	)
}

// RunRemote configures interactive testing of a deployed engine.
type RunRemote struct {
	Base
	EngineID string
}

// LoadRunRemote validates the environment for a remote run.
func LoadRunRemote(v *viper.Viper) (*RunRemote, error) {
	e := &env{v: v}
	cfg := &RunRemote{
		Base:     loadBase(e),
		EngineID: e.require(envEngineID),
	}
	if err := e.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunLocal is the minimal configuration for the local development server.
type RunLocal struct {
	Project   string
	AgentName string
	Model     string
	DatasetID string
	LogLevel  string

	OAuthClientID     string
	OAuthClientSecret string
	PlatformAuthID    string
}

// LoadRunLocal validates the environment for local serving.
func LoadRunLocal(v *viper.Viper) (*RunLocal, error) {
	e := &env{v: v}
	cfg := &RunLocal{
		Project:           e.require(envProject),
		AgentName:         e.require(envAgentName),
		Model:             e.optional(envRootAgentModel, defaultModel),
		DatasetID:         e.optional(envDatasetID, defaultDataset),
		LogLevel:          e.optional(envLogLevel, defaultLogLevel),
		OAuthClientID:     e.optional(envOAuthClientID, ""),
		OAuthClientSecret: e.optional(envOAuthClientSecret, ""),
		PlatformAuthID:    e.optional(envPlatformAuthID, ""),
	}
	if err := e.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
