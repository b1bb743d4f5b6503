package models

import "time"

// KnowledgeKind classifies a KnowledgeEntry's content.
type KnowledgeKind string

// Knowledge kinds.
const (
	KindADR     KnowledgeKind = "adr"
	KindPolicy  KnowledgeKind = "policy"
	KindPattern KnowledgeKind = "pattern"
	KindSpec    KnowledgeKind = "spec"
)

// KnowledgeStatus is the lifecycle state of a KnowledgeEntry.
type KnowledgeStatus string

// Knowledge statuses.
const (
	KnowledgeStatusDraft      KnowledgeStatus = "draft"
	KnowledgeStatusProposed   KnowledgeStatus = "proposed"
	KnowledgeStatusAccepted   KnowledgeStatus = "accepted"
	KnowledgeStatusDeprecated KnowledgeStatus = "deprecated"
	KnowledgeStatusSuperseded KnowledgeStatus = "superseded"
)

// KnowledgeEntry is a version-controlled knowledge artifact: an ADR,
// policy, pattern, or design document, living at a path in a
// Git-backed repository. It is immutable per commit — updates only
// arrive via a commit that advances the repository head.
type KnowledgeEntry struct {
	Path       string
	Content    string
	Layer      KnowledgeLayer
	Kind       KnowledgeKind
	Status     KnowledgeStatus
	CommitHash string
	Author     string
	UpdatedAt  time.Time
}
