package config

// NotesConfig configures note distillation, lifecycle thresholds, and
// retrieval weighting, mirroring pkg/notes's own
// DistillerConfig/LifecycleConfig/RetrievalConfig defaults.
type NotesConfig struct {
	MinEventsForDistillation int     `yaml:"min_events_for_distillation,omitempty" validate:"omitempty,min=1"`
	MinSuccessRatio          float64 `yaml:"min_success_ratio,omitempty" validate:"omitempty,gt=0,lte=1"`
	ExtractCodeSnippets      bool    `yaml:"extract_code_snippets"`
	MaxTags                  int     `yaml:"max_tags,omitempty" validate:"omitempty,min=1"`

	AutoProposeUsefulnessThreshold float64 `yaml:"auto_propose_usefulness_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	AutoProposeRetrievalThreshold  int     `yaml:"auto_propose_retrieval_threshold,omitempty" validate:"omitempty,min=1"`
	DeprecationRetrievalThreshold  int     `yaml:"deprecation_retrieval_threshold,omitempty" validate:"omitempty,min=1"`
	DeprecationUsefulnessRatio     float64 `yaml:"deprecation_usefulness_ratio,omitempty" validate:"omitempty,gt=0,lte=1"`

	RecencyWeight       float64 `yaml:"recency_weight,omitempty" validate:"omitempty,gt=0,lt=1"`
	QualityWeight       float64 `yaml:"quality_weight,omitempty" validate:"omitempty,gt=0,lt=1"`
	SimilarityWeight    float64 `yaml:"similarity_weight,omitempty" validate:"omitempty,gt=0,lt=1"`
	RecencyHalfLifeDays int     `yaml:"recency_half_life_days,omitempty" validate:"omitempty,min=1"`
	MaxResults          int     `yaml:"max_results,omitempty" validate:"omitempty,min=1"`
	RelevanceThreshold  float64 `yaml:"relevance_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// DefaultNotesConfig matches pkg/notes's DefaultDistillerConfig,
// DefaultLifecycleConfig, and DefaultRetrievalConfig.
func DefaultNotesConfig() *NotesConfig {
	return &NotesConfig{
		MinEventsForDistillation:       3,
		MinSuccessRatio:                0.5,
		ExtractCodeSnippets:            true,
		MaxTags:                        10,
		AutoProposeUsefulnessThreshold: 0.8,
		AutoProposeRetrievalThreshold:  5,
		DeprecationRetrievalThreshold:  10,
		DeprecationUsefulnessRatio:     0.1,
		RecencyWeight:                  0.2,
		QualityWeight:                  0.2,
		SimilarityWeight:               0.6,
		RecencyHalfLifeDays:            7,
		MaxResults:                     10,
		RelevanceThreshold:             0.5,
	}
}
