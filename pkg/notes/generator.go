package notes

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kikokikok/aeterna-sub003/pkg/compressor"
)

// GeneratorConfig shapes how a DistillationResult is rendered into a
// note, scaled per view mode the way compressor.ViewMode scales token
// budgets.
type GeneratorConfig struct {
	IncludeCodeSnippets bool
	IncludeMetadata     bool
	MaxPatternLength    int
}

// ForViewMode returns the section-inclusion defaults for a view,
// grounded on generator.rs's `NoteGeneratorConfig::for_view_mode`: Ax
// (agent-execution) keeps code snippets, drops metadata and cuts patterns
// at 80 characters; Ux (user-explanation) drops both snippets and metadata
// with a 120-character limit; Dx (developer-explanation) keeps both with
// a 200-character limit.
func ForViewMode(mode compressor.ViewMode) GeneratorConfig {
	switch mode {
	case compressor.ViewModeAx:
		return GeneratorConfig{IncludeCodeSnippets: true, IncludeMetadata: false, MaxPatternLength: 80}
	case compressor.ViewModeUx:
		return GeneratorConfig{IncludeCodeSnippets: false, IncludeMetadata: false, MaxPatternLength: 120}
	case compressor.ViewModeDx:
		return GeneratorConfig{IncludeCodeSnippets: true, IncludeMetadata: true, MaxPatternLength: 200}
	default:
		return GeneratorConfig{IncludeCodeSnippets: true, IncludeMetadata: true, MaxPatternLength: 120}
	}
}

// GeneratedNote is a rendered, addressable note ready for storage.
type GeneratedNote struct {
	ID          string
	Title       string
	ViewMode    compressor.ViewMode
	Sections    []Section
	Tags        []string
	SourceID    string
	GeneratedAt time.Time
}

// Section is one titled block of a generated note's body.
type Section struct {
	Heading string
	Content string
}

// Frontmatter renders the note's YAML-ish header block.
func (n GeneratedNote) Frontmatter() string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %s\n", n.ID)
	fmt.Fprintf(&b, "title: %s\n", n.Title)
	fmt.Fprintf(&b, "view: %s\n", n.ViewMode)
	fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(n.Tags, ", "))
	fmt.Fprintf(&b, "generated_at: %s\n", n.GeneratedAt.Format(time.RFC3339))
	b.WriteString("---\n")
	return b.String()
}

// FullMarkdown renders the frontmatter followed by every section as a
// markdown document.
func (n GeneratedNote) FullMarkdown() string {
	var b strings.Builder
	b.WriteString(n.Frontmatter())
	b.WriteString("\n# ")
	b.WriteString(n.Title)
	b.WriteString("\n")
	for _, s := range n.Sections {
		b.WriteString("\n## ")
		b.WriteString(s.Heading)
		b.WriteString("\n\n")
		b.WriteString(s.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Generator renders DistillationResults into GeneratedNotes.
type Generator struct{}

// NewGenerator constructs a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a note for the default (Dx) view.
func (g *Generator) Generate(result DistillationResult) GeneratedNote {
	return g.GenerateForView(result, compressor.ViewModeDx)
}

// GenerateForView renders a note scoped to a view's section config.
func (g *Generator) GenerateForView(result DistillationResult, mode compressor.ViewMode) GeneratedNote {
	config := ForViewMode(mode)

	return GeneratedNote{
		ID:          uuid.NewString(),
		Title:       generateTitle(result),
		ViewMode:    mode,
		Sections:    generateSections(result, config),
		Tags:        result.Tags,
		SourceID:    result.ID,
		GeneratedAt: time.Now(),
	}
}

// GenerateBatch renders a note per result.
func (g *Generator) GenerateBatch(results []DistillationResult, mode compressor.ViewMode) []GeneratedNote {
	notes := make([]GeneratedNote, 0, len(results))
	for _, r := range results {
		notes = append(notes, g.GenerateForView(r, mode))
	}
	return notes
}

// generateTitle mirrors generator.rs's `generate_title`: prefer a
// truncated problem statement, fall back to a truncated context, and
// finally to a trigger-derived placeholder.
func generateTitle(result DistillationResult) string {
	const maxLen = 60
	if result.Problem != "" {
		return truncateTitle(result.Problem, maxLen)
	}
	if result.Context != "" {
		return truncateTitle(result.Context, maxLen)
	}
	return fmt.Sprintf("Note from %s", result.Trigger)
}

func truncateTitle(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}

func generateSections(result DistillationResult, config GeneratorConfig) []Section {
	var sections []Section

	if result.Context != "" {
		sections = append(sections, Section{Heading: "Context", Content: result.Context})
	}
	if result.Problem != "" {
		sections = append(sections, Section{Heading: "Problem", Content: result.Problem})
	}
	if result.Solution != "" {
		sections = append(sections, Section{Heading: "Solution", Content: result.Solution})
	}
	if len(result.Patterns) > 0 {
		sections = append(sections, Section{Heading: "Patterns", Content: renderPatterns(result.Patterns, config.MaxPatternLength)})
	}
	if config.IncludeCodeSnippets && len(result.CodeSnippets) > 0 {
		sections = append(sections, Section{Heading: "Code", Content: renderCodeSnippets(result.CodeSnippets)})
	}
	if config.IncludeMetadata {
		sections = append(sections, Section{Heading: "Metadata", Content: renderMetadata(result)})
	}

	return sections
}

func renderPatterns(patterns []string, maxLen int) string {
	lines := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if len(p) > maxLen {
			p = p[:maxLen] + "..."
		}
		lines = append(lines, "- "+p)
	}
	return strings.Join(lines, "\n")
}

func renderCodeSnippets(snippets []string) string {
	blocks := make([]string, 0, len(snippets))
	for _, s := range snippets {
		blocks = append(blocks, "```\n"+s+"\n```")
	}
	return strings.Join(blocks, "\n\n")
}

func renderMetadata(result DistillationResult) string {
	return fmt.Sprintf(
		"- Trigger: %s\n- Quality score: %.2f\n- Source events: %d\n- Distilled at: %s",
		result.Trigger, result.QualityScore, result.SourceEventCount, result.DistilledAt.Format(time.RFC3339),
	)
}
