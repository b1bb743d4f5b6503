package masking

import (
	"log/slog"

	"github.com/kikokikok/aeterna-sub003/pkg/config"
)

// MaskingService applies data masking to trajectory event content and
// generated note bodies before they are persisted or distilled, per
// the doc comment on config.MaskingConfig. Created once per tenant
// (tenant masking config may differ). Thread-safe and stateless aside
// from its compiled patterns.
type MaskingService struct {
	enabled     bool
	patterns    []*CompiledPattern
	codeMaskers map[string]Masker
}

// NewMaskingService compiles cfg.CustomPatterns eagerly. Invalid
// patterns are logged and skipped rather than failing construction.
func NewMaskingService(cfg *config.MaskingConfig) *MaskingService {
	s := &MaskingService{
		codeMaskers: make(map[string]Masker),
	}
	if cfg == nil {
		return s
	}

	s.enabled = cfg.Enabled
	s.patterns = compilePatterns(cfg)

	slog.Info("masking service initialized",
		"enabled", s.enabled,
		"compiled_patterns", len(s.patterns))

	return s
}

// RegisterMasker adds a structural masker to the sweep. Call before
// the service starts handling traffic; not safe to call concurrently
// with Mask.
func (s *MaskingService) RegisterMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}

// Mask applies every registered code-based masker and then every
// compiled regex pattern to content, in that order. Returns content
// unchanged when masking is disabled or content is empty.
func (s *MaskingService) Mask(content string) string {
	if !s.enabled || content == "" {
		return content
	}

	masked := content
	for _, m := range s.codeMaskers {
		if m.AppliesTo(masked) {
			masked = m.Mask(masked)
		}
	}
	for _, p := range s.patterns {
		masked = p.Pattern.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}
