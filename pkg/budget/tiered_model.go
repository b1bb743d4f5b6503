package budget

import "github.com/kikokikok/aeterna-sub003/pkg/models"

// ModelConfig routes a memory layer to a model tier: "expensive" for
// layers where summarization quality matters most (Agent/User/Session,
// per models.MemoryLayer.IsExpensiveTier), "cheap" otherwise.
type ModelConfig struct {
	ExpensiveModel string
	CheapModel     string
}

// DefaultModelConfig defaults to a gpt-4/gpt-3.5-turbo split.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		ExpensiveModel: "gpt-4",
		CheapModel:     "gpt-3.5-turbo",
	}
}

// WithExpensiveModel returns a copy of c with ExpensiveModel set.
func (c ModelConfig) WithExpensiveModel(model string) ModelConfig {
	c.ExpensiveModel = model
	return c
}

// WithCheapModel returns a copy of c with CheapModel set.
func (c ModelConfig) WithCheapModel(model string) ModelConfig {
	c.CheapModel = model
	return c
}

// ModelForLayer selects the model tier for layer.
func (c ModelConfig) ModelForLayer(layer models.MemoryLayer) string {
	if layer.IsExpensiveTier() {
		return c.ExpensiveModel
	}
	return c.CheapModel
}
