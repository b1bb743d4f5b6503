package models

import "time"

// KnowledgePointer links a MemoryEntry back to the KnowledgeEntry it
// was synchronized from, content-addressed by hash so the Sync Bridge
// can detect drift without re-reading the knowledge repository.
type KnowledgePointer struct {
	SourceType  string // always "knowledge" for pointers produced by the sync bridge
	SourceID    string // knowledge entry path
	ContentHash string
	SyncedAt    time.Time
	SourceLayer KnowledgeLayer
	IsOrphaned  bool
}

// MemoryEntry is a piece of content stored at a given memory layer,
// optionally carrying an embedding and a KnowledgePointer in metadata
// when it originated from a knowledge entry.
type MemoryEntry struct {
	ID        string
	Content   string
	Embedding []float32
	Layer     MemoryLayer
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

const metadataKnowledgePointerKey = "knowledge_pointer"

// Pointer extracts the KnowledgePointer from Metadata, if any.
func (m *MemoryEntry) Pointer() (KnowledgePointer, bool) {
	raw, ok := m.Metadata[metadataKnowledgePointerKey]
	if !ok {
		return KnowledgePointer{}, false
	}
	ptr, ok := raw.(KnowledgePointer)
	return ptr, ok
}

// SetPointer stores a KnowledgePointer in Metadata.
func (m *MemoryEntry) SetPointer(ptr KnowledgePointer) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any, 1)
	}
	m.Metadata[metadataKnowledgePointerKey] = ptr
}
