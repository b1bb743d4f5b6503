// Package compressor implements a budget-aware, layer-ordered
// hierarchical context compressor.
package compressor

import (
	"sort"
	"strings"

	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

// ViewMode is a user-perspective selector that scales the token
// budget and chooses a preferred summary-depth order.
type ViewMode string

// View modes.
const (
	ViewModeAx ViewMode = "ax"
	ViewModeUx ViewMode = "ux"
	ViewModeDx ViewMode = "dx"
)

// Multiplier returns the token-budget multiplier for the view mode.
func (v ViewMode) Multiplier() float64 {
	switch v {
	case ViewModeAx:
		return 0.30
	case ViewModeUx:
		return 0.60
	case ViewModeDx:
		return 1.00
	default:
		return 1.00
	}
}

// PreferredDepths returns the depth preference order for the view
// mode.
func (v ViewMode) PreferredDepths() []models.SummaryDepth {
	switch v {
	case ViewModeAx:
		return []models.SummaryDepth{models.DepthSentence}
	case ViewModeUx:
		return []models.SummaryDepth{models.DepthParagraph, models.DepthSentence}
	case ViewModeDx:
		return []models.SummaryDepth{models.DepthDetailed, models.DepthParagraph, models.DepthSentence}
	default:
		return []models.SummaryDepth{models.DepthDetailed, models.DepthParagraph, models.DepthSentence}
	}
}

// Config tunes the compressor's budget distribution and inheritance
// behavior.
type Config struct {
	BaseTokenBudget             int
	LayerOrder                  []models.MemoryLayer
	EnableInheritance           bool
	InheritanceCompressionRatio float64
	MinTokensPerLayer           int
}

// DefaultConfig returns the compressor's default tuning.
func DefaultConfig() Config {
	return Config{
		BaseTokenBudget: 4000,
		LayerOrder: []models.MemoryLayer{
			models.LayerCompany,
			models.LayerOrg,
			models.LayerTeam,
			models.LayerProject,
			models.LayerSession,
		},
		EnableInheritance:           true,
		InheritanceCompressionRatio: 0.5,
		MinTokensPerLayer:           50,
	}
}

// LayerEntry is one compressible unit within a layer: a set of
// summaries at different depths, plus an optional full-content
// fallback.
type LayerEntry struct {
	EntryID           string
	Summaries         map[models.SummaryDepth]models.Summary
	FullContent       string
	HasFullContent    bool
	FullContentTokens int
}

// LayerContent is all the entries belonging to one memory layer, as
// presented to the compressor.
type LayerContent struct {
	Layer   models.MemoryLayer
	Entries []LayerEntry
}

// CompressedEntry is the selected rendering of one LayerEntry.
type CompressedEntry struct {
	EntryID    string
	Content    string
	Depth      models.SummaryDepth
	TokenCount int
	IsFallback bool
}

// CompressedLayer is the output for one memory layer.
type CompressedLayer struct {
	Layer            models.MemoryLayer
	Entries          []CompressedEntry
	InheritedContext string
	HasInherited     bool
	InheritedTokens  int
	TotalTokens      int
}

// CompressionResult is the overall output of Compress.
type CompressionResult struct {
	Layers      []CompressedLayer
	TotalTokens int
	TokenBudget int
	ViewMode    ViewMode
}

// IsWithinBudget reports whether TotalTokens <= TokenBudget.
func (r CompressionResult) IsWithinBudget() bool {
	return r.TotalTokens <= r.TokenBudget
}

// CombinedContent concatenates every layer's inherited context (if
// any) and entry contents, in layer order, joined by blank lines.
func (r CompressionResult) CombinedContent() string {
	var parts []string
	for _, layer := range r.Layers {
		if layer.HasInherited {
			parts = append(parts, layer.InheritedContext)
		}
		for _, e := range layer.Entries {
			parts = append(parts, e.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Compressor selects, for a set of layer contents and a view mode, the
// best-fitting summary depth per entry under a token budget, ordering
// layers broad-to-specific and optionally chaining inherited context
// between consecutive layers.
type Compressor struct {
	config Config
}

// New creates a Compressor with the given config.
func New(config Config) *Compressor {
	return &Compressor{config: config}
}

// Compress is the component's single public entry point. tokenBudget,
// if non-nil, overrides the configured base budget before the
// view-mode multiplier is applied.
func (c *Compressor) Compress(layers []LayerContent, viewMode ViewMode, tokenBudget *int) CompressionResult {
	baseBudget := c.config.BaseTokenBudget
	if tokenBudget != nil {
		baseBudget = *tokenBudget
	}
	adjustedBudget := int(float64(baseBudget) * viewMode.Multiplier())

	layerBudgets := c.distributeBudgetToLayers(layers, adjustedBudget)
	preferredDepths := viewMode.PreferredDepths()

	ordered := c.orderLayers(layers)

	var compressedLayers []CompressedLayer
	var inheritedContext string
	hasInherited := false
	inheritedTokens := 0

	for _, layerContent := range ordered {
		layerBudget, ok := layerBudgets[layerContent.Layer]
		if !ok {
			layerBudget = c.config.MinTokensPerLayer
		}

		availableBudget := layerBudget
		if c.config.EnableInheritance && inheritedTokens > 0 {
			availableBudget = saturatingSub(layerBudget, inheritedTokens)
		}

		compressed := c.compressLayer(layerContent, availableBudget, preferredDepths, inheritedContext, hasInherited, inheritedTokens)

		if c.config.EnableInheritance && len(compressed.Entries) > 0 {
			inheritedContext = c.createInheritedContext(compressed, preferredDepths)
			hasInherited = true
			estimated := models.EstimateTokens(inheritedContext)
			inheritedTokens = int(float64(estimated) * c.config.InheritanceCompressionRatio)
		}

		compressedLayers = append(compressedLayers, compressed)
	}

	total := 0
	for _, l := range compressedLayers {
		total += l.TotalTokens
	}

	return CompressionResult{
		Layers:      compressedLayers,
		TotalTokens: total,
		TokenBudget: adjustedBudget,
		ViewMode:    viewMode,
	}
}

func saturatingSub(a, b int) int {
	if b >= a {
		return 0
	}
	return a - b
}

// distributeBudgetToLayers implements the weighted proportional split
// (weight = 1 + 0.2*position), flooring every layer at
// MinTokensPerLayer, and short-circuiting to the flat minimum when the
// total budget cannot cover every layer's floor.
func (c *Compressor) distributeBudgetToLayers(layers []LayerContent, totalBudget int) map[models.MemoryLayer]int {
	budgets := make(map[models.MemoryLayer]int)
	if len(layers) == 0 {
		return budgets
	}

	layerCount := len(layers)
	minTotal := c.config.MinTokensPerLayer * layerCount

	if totalBudget <= minTotal {
		for _, l := range layers {
			budgets[l.Layer] = c.config.MinTokensPerLayer
		}
		return budgets
	}

	type weighted struct {
		layer  models.MemoryLayer
		weight float64
	}
	weights := make([]weighted, 0, len(layers))
	totalWeight := 0.0
	for _, l := range layers {
		pos := c.layerPosition(l.Layer)
		w := 1.0 + float64(pos)*0.2
		weights = append(weights, weighted{layer: l.Layer, weight: w})
		totalWeight += w
	}

	for _, wl := range weights {
		proportion := wl.weight / totalWeight
		tokens := int(float64(totalBudget) * proportion)
		if tokens < c.config.MinTokensPerLayer {
			tokens = c.config.MinTokensPerLayer
		}
		budgets[wl.layer] = tokens
	}

	return budgets
}

func (c *Compressor) layerPosition(layer models.MemoryLayer) int {
	for i, l := range c.config.LayerOrder {
		if l == layer {
			return i
		}
	}
	return len(c.config.LayerOrder)
}

// orderLayers sorts the input layers into the configured broad-to-
// specific order, regardless of input order.
func (c *Compressor) orderLayers(layers []LayerContent) []LayerContent {
	ordered := make([]LayerContent, len(layers))
	copy(ordered, layers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return c.layerPosition(ordered[i].Layer) < c.layerPosition(ordered[j].Layer)
	})
	return ordered
}

// compressLayer divides budget evenly across entries and selects the
// best-fitting content for each, stopping once the remaining budget
// drops below MinTokensPerLayer.
func (c *Compressor) compressLayer(layer LayerContent, budget int, preferredDepths []models.SummaryDepth, inheritedContext string, hasInherited bool, inheritedTokens int) CompressedLayer {
	var entries []CompressedEntry
	remaining := budget

	entryBudget := budget
	if len(layer.Entries) > 0 {
		entryBudget = budget / len(layer.Entries)
	}

	for _, entry := range layer.Entries {
		if remaining < c.config.MinTokensPerLayer {
			break
		}

		allocation := entryBudget
		if remaining < allocation {
			allocation = remaining
		}

		if compressed, ok := c.selectBestContent(entry, allocation, preferredDepths); ok {
			remaining = saturatingSub(remaining, compressed.TokenCount)
			entries = append(entries, compressed)
		}
	}

	entryTokens := 0
	for _, e := range entries {
		entryTokens += e.TokenCount
	}

	return CompressedLayer{
		Layer:            layer.Layer,
		Entries:          entries,
		InheritedContext: inheritedContext,
		HasInherited:     hasInherited,
		InheritedTokens:  inheritedTokens,
		TotalTokens:      entryTokens + inheritedTokens,
	}
}

// selectBestContent implements a four-step fallback: preferred depths
// that fit, then any depth that fits (in canonical
// Sentence/Paragraph/Detailed order), then the shortest available
// depth regardless of fit, then full content marked as a fallback,
// then (if nothing exists) skip the entry entirely.
func (c *Compressor) selectBestContent(entry LayerEntry, budget int, preferredDepths []models.SummaryDepth) (CompressedEntry, bool) {
	for _, depth := range preferredDepths {
		if summary, ok := entry.Summaries[depth]; ok && summary.TokenCount <= budget {
			return CompressedEntry{
				EntryID:    entry.EntryID,
				Content:    summary.Content,
				Depth:      depth,
				TokenCount: summary.TokenCount,
			}, true
		}
	}

	for _, depth := range models.AllDepths {
		if summary, ok := entry.Summaries[depth]; ok && summary.TokenCount <= budget {
			return CompressedEntry{
				EntryID:    entry.EntryID,
				Content:    summary.Content,
				Depth:      depth,
				TokenCount: summary.TokenCount,
			}, true
		}
	}

	for _, depth := range models.AllDepths {
		if summary, ok := entry.Summaries[depth]; ok {
			return CompressedEntry{
				EntryID:    entry.EntryID,
				Content:    summary.Content,
				Depth:      depth,
				TokenCount: summary.TokenCount,
			}, true
		}
	}

	if entry.HasFullContent {
		tokens := entry.FullContentTokens
		if tokens == 0 {
			tokens = models.EstimateTokens(entry.FullContent)
		}
		return CompressedEntry{
			EntryID:    entry.EntryID,
			Content:    entry.FullContent,
			Depth:      models.DepthDetailed,
			TokenCount: tokens,
			IsFallback: true,
		}, true
	}

	return CompressedEntry{}, false
}

// createInheritedContext builds the inherited-context string from the
// previous compressed layer's shortest-depth summaries, joined by
// " | ".
func (c *Compressor) createInheritedContext(layer CompressedLayer, preferredDepths []models.SummaryDepth) string {
	shortest := models.DepthSentence
	if len(preferredDepths) > 0 {
		shortest = preferredDepths[len(preferredDepths)-1]
	}

	var parts []string
	for _, e := range layer.Entries {
		if e.Depth == shortest {
			parts = append(parts, e.Content)
		}
	}
	if len(parts) == 0 {
		for _, e := range layer.Entries {
			parts = append(parts, e.Content)
		}
	}
	return strings.Join(parts, " | ")
}
