package model

import domain "github.com/claudegateway/openai-bridge/model"

// AuthStatusResponse is the wire shape of GET /v1/auth/status.
type AuthStatusResponse struct {
	ServerInfo ServerInfo     `json:"server_info"`
	ClaudeAuth ClaudeAuthInfo `json:"claude_auth"`
}

// ServerInfo describes the gateway's own auth posture, independent of which
// Claude provider it authenticates against.
type ServerInfo struct {
	APIKeyRequired bool   `json:"api_key_required"`
	AuthMethod     string `json:"auth_method"`
	Provider       string `json:"provider"`
}

// ClaudeAuthInfo mirrors domain.AuthState's provider-detection fields.
type ClaudeAuthInfo struct {
	Configured                bool     `json:"configured"`
	AnthropicAPIKeyConfigured bool     `json:"anthropic_api_key_configured"`
	BedrockConfigured         bool     `json:"bedrock_configured"`
	VertexConfigured          bool     `json:"vertex_configured"`
	ClaudeCLIAvailable        bool     `json:"claude_cli_available"`
	Errors                    []string `json:"errors,omitempty"`
}

// FromDomainAuthState converts a resolved AuthState into its wire shape.
func FromDomainAuthState(s domain.AuthState) AuthStatusResponse {
	return AuthStatusResponse{
		ServerInfo: ServerInfo{
			APIKeyRequired: s.APIKeyProtected,
			AuthMethod:     string(s.Method),
			Provider:       string(s.Method),
		},
		ClaudeAuth: ClaudeAuthInfo{
			Configured:                s.Authenticated,
			AnthropicAPIKeyConfigured: s.AnthropicConfigured,
			BedrockConfigured:         s.BedrockConfigured,
			VertexConfigured:          s.VertexConfigured,
			ClaudeCLIAvailable:        s.ClaudeCLIAvailable,
			Errors:                    s.Errors,
		},
	}
}
