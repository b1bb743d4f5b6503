package notes

import (
	"context"
	"math"
	"sort"
	"time"
)

// RetrievalConfig tunes how ScoredNote combines similarity, recency,
// and quality into one ranking score.
type RetrievalConfig struct {
	RecencyWeight      float64
	QualityWeight      float64
	SimilarityWeight   float64
	RecencyHalfLife    time.Duration
	MaxResults         int
	RelevanceThreshold float64
}

// DefaultRetrievalConfig weights similarity most heavily, consistent
// with retrieval.rs's default scoring mix.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		RecencyWeight:      0.2,
		QualityWeight:      0.2,
		SimilarityWeight:   0.6,
		RecencyHalfLife:    7 * 24 * time.Hour,
		MaxResults:         10,
		RelevanceThreshold: 0.5,
	}
}

// Filter narrows a retrieval to notes matching every non-zero field.
type Filter struct {
	Tags         []string
	MinQuality   float64
	CreatedAfter time.Time
}

// WithTags returns a copy of the filter scoped to the given tags.
func (f Filter) WithTags(tags []string) Filter {
	f.Tags = tags
	return f
}

// WithMinQuality returns a copy of the filter with a quality floor.
func (f Filter) WithMinQuality(min float64) Filter {
	f.MinQuality = min
	return f
}

// WithCreatedAfter returns a copy of the filter scoped to a time window.
func (f Filter) WithCreatedAfter(t time.Time) Filter {
	f.CreatedAfter = t
	return f
}

// indexedNote is one entry tracked by a NoteIndex: the generated note,
// its lifecycle wrapper, embedding vector, and quality score.
type indexedNote struct {
	lifecycle *NoteWithLifecycle
	embedding []float32
	quality   float64
}

// ScoredNote pairs a note with the combined score that ranked it.
type ScoredNote struct {
	Note            GeneratedNote
	SimilarityScore float64
	RecencyScore    float64
	QualityScore    float64
	CombinedScore   float64
}

// computeCombinedScore blends similarity, recency, and quality by the
// configured weights, grounded on retrieval.rs's
// `ScoredNote::compute_combined_score`.
func computeCombinedScore(similarity, recency, quality float64, config RetrievalConfig) float64 {
	return similarity*config.SimilarityWeight + recency*config.RecencyWeight + quality*config.QualityWeight
}

// Index holds the corpus of notes available for relevance-based
// retrieval, grounded on retrieval.rs's `NoteIndex`.
type Index struct {
	config RetrievalConfig
	notes  map[string]*indexedNote
}

// NewIndex constructs an empty Index.
func NewIndex(config RetrievalConfig) *Index {
	return &Index{config: config, notes: make(map[string]*indexedNote)}
}

// AddNote registers a note with its embedding and quality score.
func (idx *Index) AddNote(lifecycle *NoteWithLifecycle, embedding []float32, quality float64) {
	idx.notes[lifecycle.Note.ID] = &indexedNote{lifecycle: lifecycle, embedding: embedding, quality: quality}
}

// RemoveNote drops a note from the index.
func (idx *Index) RemoveNote(id string) {
	delete(idx.notes, id)
}

// GetNote returns the lifecycle wrapper for a tracked note ID.
func (idx *Index) GetNote(id string) (*NoteWithLifecycle, bool) {
	n, ok := idx.notes[id]
	if !ok {
		return nil, false
	}
	return n.lifecycle, true
}

// NoteCount reports how many notes the index currently tracks.
func (idx *Index) NoteCount() int {
	return len(idx.notes)
}

// RetrieveRelevant scores every matching, active note against a query
// embedding and returns the top results by combined score.
func (idx *Index) RetrieveRelevant(queryEmbedding []float32, filter Filter) []ScoredNote {
	now := time.Now()

	var scored []ScoredNote
	for _, entry := range idx.notes {
		if !entry.lifecycle.Status.IsActive() {
			continue
		}
		if !matchesFilter(entry, filter) {
			continue
		}

		similarity := cosineSimilarity(queryEmbedding, entry.embedding)
		recency := computeRecencyScore(entry.lifecycle.Note.GeneratedAt, now, idx.config.RecencyHalfLife)
		combined := computeCombinedScore(similarity, recency, entry.quality, idx.config)
		if combined < idx.config.RelevanceThreshold {
			continue
		}

		scored = append(scored, ScoredNote{
			Note:            entry.lifecycle.Note,
			SimilarityScore: similarity,
			RecencyScore:    recency,
			QualityScore:    entry.quality,
			CombinedScore:   combined,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore > scored[j].CombinedScore
	})

	limit := idx.config.MaxResults
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func matchesFilter(entry *indexedNote, filter Filter) bool {
	if entry.quality < filter.MinQuality {
		return false
	}
	if !filter.CreatedAfter.IsZero() && entry.lifecycle.Note.GeneratedAt.Before(filter.CreatedAfter) {
		return false
	}
	if len(filter.Tags) > 0 && !tagsIntersect(entry.lifecycle.Note.Tags, filter.Tags) {
		return false
	}
	return true
}

func tagsIntersect(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// computeRecencyScore applies a linear decay over halfLife, floored
// at 0, matching retrieval.rs's `NoteIndex::compute_recency_score`.
func computeRecencyScore(generatedAt, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 1.0
	}
	age := now.Sub(generatedAt)
	if age <= 0 {
		return 1.0
	}
	score := 1.0 - float64(age)/float64(halfLife)
	if score < 0 {
		return 0
	}
	return score
}

// cosineSimilarity is the standard vector similarity measure, zero
// when either vector is empty/zero-length or the lengths mismatch.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Retriever pairs an Index with an Embedder so callers can retrieve
// by raw query text rather than a precomputed embedding.
type Retriever struct {
	index    *Index
	embedder Embedder
}

// NewRetriever constructs a Retriever over an existing Index.
func NewRetriever(index *Index, embedder Embedder) *Retriever {
	return &Retriever{index: index, embedder: embedder}
}

// RetrieveRelevant embeds the query text and delegates to the index.
func (r *Retriever) RetrieveRelevant(ctx context.Context, query string, filter Filter) ([]ScoredNote, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.index.RetrieveRelevant(embedding, filter), nil
}
