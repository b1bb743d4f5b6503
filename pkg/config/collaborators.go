package config

// CollaboratorsConfig resolves the global (cross-tenant) collaborator
// endpoints the core consumes through narrow interfaces: an LLM
// completion client, a vector-backend client, and a Git-backed
// knowledge repository — each an external service this process talks
// HTTP or subprocess to, configured with a transport/timeout shape and
// an API-key-env shape.
type CollaboratorsConfig struct {
	LLM               EndpointConfig `yaml:"llm" validate:"required"`
	Vector            EndpointConfig `yaml:"vector" validate:"required"`
	KnowledgeRepoRoot string         `yaml:"knowledge_repo_root" validate:"required"`
}

// DefaultCollaboratorsConfig points at a local LM Studio-compatible
// server, matching pkg/collaborators/llm and pkg/collaborators/vector's
// own DefaultConfig functions.
func DefaultCollaboratorsConfig() *CollaboratorsConfig {
	return &CollaboratorsConfig{
		LLM:               EndpointConfig{BaseURL: "http://localhost:1234/v1", Model: "local-model", TimeoutSeconds: 60},
		Vector:            EndpointConfig{BaseURL: "http://localhost:1234/v1", Model: "local-embedding-model", TimeoutSeconds: 30},
		KnowledgeRepoRoot: "./knowledge",
	}
}
