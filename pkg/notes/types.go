// Package notes implements the note-taking subsystem: distilling an
// agent trajectory into a reusable learning (distiller.go), rendering
// it as a tagged markdown note (generator.go), tracking its lifecycle
// from Draft through Accepted/Deprecated with auto-proposal and
// review-flagging (lifecycle.go), and scoring/retrieving notes by
// relevance (retrieval.go). Grounded on
// knowledge/src/note_taking/{distiller,generator,lifecycle,retrieval}.rs.
package notes

import "context"

// TrajectoryEvent is one tool invocation in an agent's run, the unit
// the Distiller summarizes across.
type TrajectoryEvent struct {
	ToolName   string
	Input      string
	Output     string
	Success    bool
	DurationMs uint64
}

// Completer is the narrow LLM contract the distiller needs — the same
// synchronous completion shape as pkg/metaagent.Completer, declared
// locally here rather than imported so this package doesn't couple to
// metaagent's collaborator wiring.
type Completer interface {
	CompleteWithSystem(ctx context.Context, system, user string) (string, error)
}

// Embedder turns note text into a vector for similarity search — the
// narrow contract that pkg/collaborators/vector's HTTPEmbedder
// implements.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
