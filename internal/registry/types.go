package registry

import "strings"

// Agent is a single registration record as returned by the Discovery Engine
// agents API.
type Agent struct {
	Name          string              `json:"name"`
	DisplayName   string              `json:"displayName"`
	Description   string              `json:"description,omitempty"`
	ADKDefinition *ADKAgentDefinition `json:"adkAgentDefinition,omitempty"`
}

// ADKAgentDefinition is the ADK-specific portion of a registration.
type ADKAgentDefinition struct {
	ProvisionedEngine *ProvisionedEngine `json:"provisionedReasoningEngine,omitempty"`
}

// ProvisionedEngine references the deployed reasoning engine resource.
type ProvisionedEngine struct {
	ReasoningEngine string `json:"reasoningEngine"`
}

// RegistrationID returns the registry-assigned id, the last segment of the
// resource name.
func (a *Agent) RegistrationID() string {
	return lastSegment(a.Name)
}

// EngineID returns the reasoning engine id embedded in the registration, or
// "" when the registration does not reference an engine. This id is the
// idempotency key for the whole workflow; display names are not unique.
func (a *Agent) EngineID() string {
	if a.ADKDefinition == nil || a.ADKDefinition.ProvisionedEngine == nil {
		return ""
	}
	return lastSegment(a.ADKDefinition.ProvisionedEngine.ReasoningEngine)
}

// AgentList is the response of the agents list call.
type AgentList struct {
	Agents []Agent `json:"agents"`
}

// FindByEngineID returns the first registration whose embedded engine id
// matches, or nil.
func (l *AgentList) FindByEngineID(engineID string) *Agent {
	for i := range l.Agents {
		if l.Agents[i].EngineID() == engineID {
			return &l.Agents[i]
		}
	}
	return nil
}

// Registration is the payload for creating a new registration. The nested
// keys follow the API's documented create shape.
type Registration struct {
	DisplayName     string
	Description     string
	ReasoningEngine string
	// AuthorizationNames optionally references authorization resources the
	// platform performs OAuth flows with.
	AuthorizationNames []string
}

// payload returns the JSON body for the create call.
func (r Registration) payload() map[string]any {
	def := map[string]any{
		"tool_settings": map[string]any{
			"tool_description": r.Description,
		},
		"provisioned_reasoning_engine": map[string]any{
			"reasoning_engine": r.ReasoningEngine,
		},
	}
	if len(r.AuthorizationNames) > 0 {
		def["authorizations"] = r.AuthorizationNames
	}
	return map[string]any{
		"displayName":          r.DisplayName,
		"description":          r.Description,
		"adk_agent_definition": def,
	}
}

// Authorization is a server-side OAuth authorization resource.
type Authorization struct {
	Name             string           `json:"name"`
	ServerSideOAuth2 ServerSideOAuth2 `json:"serverSideOauth2"`
}

// ServerSideOAuth2 holds the OAuth client configuration the platform uses to
// run the authorization flow on the agent's behalf.
type ServerSideOAuth2 struct {
	ClientID         string   `json:"clientId"`
	ClientSecret     string   `json:"clientSecret"`
	AuthorizationURI string   `json:"authorizationUri"`
	TokenURI         string   `json:"tokenUri"`
	Scopes           []string `json:"scopes,omitempty"`
	PKCEEnabled      bool     `json:"pkceEnabled,omitempty"`
}

func lastSegment(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	return parts[len(parts)-1]
}
