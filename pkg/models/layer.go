// Package models holds the data model shared across components: the
// memory layer hierarchy, knowledge and memory entries, summaries,
// budgets, graph entities, cached entries, approval workflows, and
// sync state.
package models

// MemoryLayer is one of the seven precedence levels on memory and
// knowledge entries. Lower Precedence() means higher precedence:
// Agent(1) outranks Company(7).
type MemoryLayer string

// The seven memory layers, broadest (Company) to narrowest (Agent).
const (
	LayerAgent   MemoryLayer = "agent"
	LayerUser    MemoryLayer = "user"
	LayerSession MemoryLayer = "session"
	LayerProject MemoryLayer = "project"
	LayerTeam    MemoryLayer = "team"
	LayerOrg     MemoryLayer = "org"
	LayerCompany MemoryLayer = "company"
)

// layerPrecedence maps each layer to its precedence number; lower
// numbers win.
var layerPrecedence = map[MemoryLayer]int{
	LayerAgent:   1,
	LayerUser:    2,
	LayerSession: 3,
	LayerProject: 4,
	LayerTeam:    5,
	LayerOrg:     6,
	LayerCompany: 7,
}

// Precedence returns the layer's precedence number (1 = highest).
// Unknown layers get len(layerPrecedence)+1, a number larger than any
// known layer's, so they sort after every known layer.
func (l MemoryLayer) Precedence() int {
	if p, ok := layerPrecedence[l]; ok {
		return p
	}
	return len(layerPrecedence) + 1
}

// IsExpensiveTier reports whether this layer routes to the expensive
// model tier (precedence 1-3: Agent, User, Session).
func (l MemoryLayer) IsExpensiveTier() bool {
	p := l.Precedence()
	return p >= 1 && p <= 3
}

// DefaultLayerOrder is the broad-to-specific compression and
// retrieval ordering used when no tenant override is configured
// (Company precedes Agent).
var DefaultLayerOrder = []MemoryLayer{
	LayerCompany,
	LayerOrg,
	LayerTeam,
	LayerProject,
	LayerSession,
	LayerUser,
	LayerAgent,
}

// KnowledgeLayer restricts MemoryLayer to the four layers knowledge
// entries may live in: Company, Org, Team, Project.
type KnowledgeLayer string

// The four knowledge layers.
const (
	KnowledgeLayerCompany KnowledgeLayer = "company"
	KnowledgeLayerOrg     KnowledgeLayer = "org"
	KnowledgeLayerTeam    KnowledgeLayer = "team"
	KnowledgeLayerProject KnowledgeLayer = "project"
)

// AsMemoryLayer maps a KnowledgeLayer to the corresponding MemoryLayer
// (they share the same literal layer names for these four).
func (l KnowledgeLayer) AsMemoryLayer() MemoryLayer {
	return MemoryLayer(l)
}
