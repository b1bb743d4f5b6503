package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCollaboratorsConfig(t *testing.T) {
	cfg := DefaultCollaboratorsConfig()

	assert.Equal(t, "http://localhost:1234/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "http://localhost:1234/v1", cfg.Vector.BaseURL)
	assert.Equal(t, "./knowledge", cfg.KnowledgeRepoRoot)
	assert.NotZero(t, cfg.LLM.TimeoutSeconds)
	assert.NotZero(t, cfg.Vector.TimeoutSeconds)
}
