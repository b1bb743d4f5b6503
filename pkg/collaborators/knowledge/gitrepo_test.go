package knowledge

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test Author",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test Author",
		"GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
}

func initRepoWithEntry(t *testing.T, path, content string) string {
	t.Helper()
	root := t.TempDir()
	runGit(t, root, "init")

	fullPath := filepath.Join(root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))

	runGit(t, root, "add", ".")
	runGit(t, root, "commit", "-m", "add "+path)
	return root
}

const sampleEntry = `---
layer: team
kind: adr
status: accepted
author: alice
---
# Use structured logging

We adopted log/slog across services.
`

func TestHeadCommitReturnsCurrentHash(t *testing.T) {
	root := initRepoWithEntry(t, "adrs/logging.md", sampleEntry)
	repo := NewGitRepository(root)

	head, err := repo.HeadCommit(context.Background())
	require.NoError(t, err)
	assert.Len(t, head, 40)
}

func TestGetByPathParsesFrontmatterAndBody(t *testing.T) {
	root := initRepoWithEntry(t, "adrs/logging.md", sampleEntry)
	repo := NewGitRepository(root)

	entry, err := repo.GetByPath(context.Background(), "adrs/logging.md")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, models.KnowledgeLayerTeam, entry.Layer)
	assert.Equal(t, models.KindADR, entry.Kind)
	assert.Equal(t, models.KnowledgeStatusAccepted, entry.Status)
	assert.Equal(t, "alice", entry.Author)
	assert.Contains(t, entry.Content, "structured logging")
	assert.NotEmpty(t, entry.CommitHash)
}

func TestGetByPathReturnsNilForMissingFile(t *testing.T) {
	root := initRepoWithEntry(t, "adrs/logging.md", sampleEntry)
	repo := NewGitRepository(root)

	entry, err := repo.GetByPath(context.Background(), "adrs/missing.md")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGetFiltersByLayer(t *testing.T) {
	root := initRepoWithEntry(t, "adrs/logging.md", sampleEntry)
	repo := NewGitRepository(root)

	_, err := repo.Get(context.Background(), models.KnowledgeLayerOrg, "adrs/logging.md")
	require.NoError(t, err)

	entry, err := repo.Get(context.Background(), models.KnowledgeLayerTeam, "adrs/logging.md")
	require.NoError(t, err)
	require.NotNil(t, entry)
}

func TestListReturnsEntriesMatchingLayer(t *testing.T) {
	root := t.TempDir()
	runGit(t, root, "init")

	teamPath := filepath.Join(root, "adrs", "team.md")
	orgPath := filepath.Join(root, "adrs", "org.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(teamPath), 0o755))
	require.NoError(t, os.WriteFile(teamPath, []byte("---\nlayer: team\nkind: adr\nstatus: draft\n---\nteam note"), 0o644))
	require.NoError(t, os.WriteFile(orgPath, []byte("---\nlayer: org\nkind: adr\nstatus: draft\n---\norg note"), 0o644))
	runGit(t, root, "add", ".")
	runGit(t, root, "commit", "-m", "seed")

	repo := NewGitRepository(root)
	entries, err := repo.List(context.Background(), models.KnowledgeLayerTeam)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "adrs/team.md", entries[0].Path)
}

func TestAffectedSinceListsChangedMarkdownFiles(t *testing.T) {
	root := initRepoWithEntry(t, "adrs/logging.md", sampleEntry)
	repo := NewGitRepository(root)

	first, err := repo.HeadCommit(context.Background())
	require.NoError(t, err)

	newPath := filepath.Join(root, "adrs", "second.md")
	require.NoError(t, os.WriteFile(newPath, []byte(sampleEntry), 0o644))
	runGit(t, root, "add", ".")
	runGit(t, root, "commit", "-m", "add second")

	affected, err := repo.AffectedSince(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, "adrs/second.md", affected[0].Path)
}
