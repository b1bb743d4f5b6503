package masking

import (
	"log/slog"
	"regexp"

	"github.com/kikokikok/aeterna-sub003/pkg/config"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
	Description string
}

// compilePatterns compiles every entry in cfg.CustomPatterns, logging
// and skipping any pattern that fails to compile rather than failing
// the whole service.
func compilePatterns(cfg *config.MaskingConfig) []*CompiledPattern {
	if cfg == nil {
		return nil
	}

	compiled := make([]*CompiledPattern, 0, len(cfg.CustomPatterns))
	for _, p := range cfg.CustomPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			slog.Error("failed to compile masking pattern, skipping",
				"pattern", p.Pattern, "error", err)
			continue
		}
		compiled = append(compiled, &CompiledPattern{
			Pattern:     re,
			Replacement: p.Replacement,
			Description: p.Description,
		})
	}
	return compiled
}
