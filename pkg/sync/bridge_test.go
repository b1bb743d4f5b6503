package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

// fakeKnowledgeRepo and fakeMemoryStore are in-memory stand-ins for the
// Git-backed repository and layered memory store, letting bridge logic
// be tested without a live Postgres/Git backend.

type fakeKnowledgeRepo struct {
	head    string
	entries map[string]models.KnowledgeEntry // path -> entry
	byLayer map[models.KnowledgeLayer][]string
}

func newFakeKnowledgeRepo() *fakeKnowledgeRepo {
	return &fakeKnowledgeRepo{
		entries: make(map[string]models.KnowledgeEntry),
		byLayer: make(map[models.KnowledgeLayer][]string),
	}
}

func (f *fakeKnowledgeRepo) put(e models.KnowledgeEntry) {
	if _, exists := f.entries[e.Path]; !exists {
		f.byLayer[e.Layer] = append(f.byLayer[e.Layer], e.Path)
	}
	f.entries[e.Path] = e
}

func (f *fakeKnowledgeRepo) remove(path string) {
	delete(f.entries, path)
}

func (f *fakeKnowledgeRepo) HeadCommit(ctx context.Context) (string, error) {
	return f.head, nil
}

func (f *fakeKnowledgeRepo) AffectedSince(ctx context.Context, commit string) ([]AffectedItem, error) {
	var items []AffectedItem
	for layer, paths := range f.byLayer {
		for _, p := range paths {
			items = append(items, AffectedItem{Layer: layer, Path: p})
		}
	}
	return items, nil
}

func (f *fakeKnowledgeRepo) Get(ctx context.Context, layer models.KnowledgeLayer, path string) (*models.KnowledgeEntry, error) {
	e, ok := f.entries[path]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeKnowledgeRepo) GetByPath(ctx context.Context, path string) (*models.KnowledgeEntry, error) {
	e, ok := f.entries[path]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeKnowledgeRepo) List(ctx context.Context, layer models.KnowledgeLayer) ([]models.KnowledgeEntry, error) {
	var result []models.KnowledgeEntry
	for _, p := range f.byLayer[layer] {
		result = append(result, f.entries[p])
	}
	return result, nil
}

type fakeMemoryStore struct {
	entries map[models.MemoryLayer]map[string]models.MemoryEntry
}

func newFakeMemoryStore() *fakeMemoryStore {
	return &fakeMemoryStore{entries: make(map[models.MemoryLayer]map[string]models.MemoryEntry)}
}

func (f *fakeMemoryStore) AddToLayer(ctx context.Context, layer models.MemoryLayer, entry models.MemoryEntry) error {
	if f.entries[layer] == nil {
		f.entries[layer] = make(map[string]models.MemoryEntry)
	}
	f.entries[layer][entry.ID] = entry
	return nil
}

func (f *fakeMemoryStore) GetFromLayer(ctx context.Context, layer models.MemoryLayer, id string) (*models.MemoryEntry, error) {
	m, ok := f.entries[layer][id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeMemoryStore) DeleteFromLayer(ctx context.Context, layer models.MemoryLayer, id string) error {
	delete(f.entries[layer], id)
	return nil
}

type fakePersister struct {
	saved map[string]models.SyncState
}

func newFakePersister() *fakePersister {
	return &fakePersister{saved: make(map[string]models.SyncState)}
}

func (f *fakePersister) Load(ctx context.Context, tenantID string) (models.SyncState, error) {
	if s, ok := f.saved[tenantID]; ok {
		return s, nil
	}
	return models.NewSyncState(), nil
}

func (f *fakePersister) Save(ctx context.Context, tenantID string, state models.SyncState) error {
	f.saved[tenantID] = state
	return nil
}

func testEntry(path string, layer models.KnowledgeLayer, content string) models.KnowledgeEntry {
	return models.KnowledgeEntry{
		Path:    path,
		Content: content,
		Layer:   layer,
		Kind:    models.KindADR,
		Status:  models.KnowledgeStatusAccepted,
	}
}

func TestSyncAllPopulatesMemoryFromKnowledge(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit1"
	repo.put(testEntry("adr/001.md", models.KnowledgeLayerCompany, "Use Postgres\nrationale here"))

	mem := newFakeMemoryStore()
	persister := newFakePersister()
	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, bridge.SyncAll(context.Background()))

	state := bridge.State()
	assert.Equal(t, "commit1", state.LastKnowledgeCommit)
	assert.Equal(t, uint64(1), state.Stats.TotalItemsSynced)
	assert.Contains(t, state.PointerMapping, "ptr_adr/001.md")

	entry, err := mem.GetFromLayer(context.Background(), models.LayerCompany, "ptr_adr/001.md")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Contains(t, entry.Content, "Use Postgres")
}

func TestSyncEntrySkipsUnchangedContent(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit1"
	repo.put(testEntry("adr/001.md", models.KnowledgeLayerCompany, "unchanged content"))

	mem := newFakeMemoryStore()
	persister := newFakePersister()
	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, bridge.SyncAll(context.Background()))

	firstSynced := bridge.State().Stats.TotalItemsSynced

	require.NoError(t, bridge.SyncAll(context.Background()))
	assert.Equal(t, firstSynced, bridge.State().Stats.TotalItemsSynced)
}

func TestCheckTriggersDetectsCommitMismatch(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit2"

	mem := newFakeMemoryStore()
	persister := newFakePersister()
	persister.saved["tenant-a"] = models.SyncState{
		LastKnowledgeCommit: "commit1",
		KnowledgeHashes:     map[string]string{},
		PointerMapping:      map[string]string{},
	}

	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)

	trigger, err := bridge.CheckTriggers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TriggerCommitMismatch, trigger)
}

func TestCheckTriggersManualWhenNeverSynced(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	mem := newFakeMemoryStore()
	persister := newFakePersister()

	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)

	trigger, err := bridge.CheckTriggers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TriggerManual, trigger)
}

func TestCheckTriggersStalenessAfterThreshold(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit1"
	mem := newFakeMemoryStore()
	persister := newFakePersister()

	old := time.Now().Add(-2 * time.Hour)
	persister.saved["tenant-a"] = models.SyncState{
		LastSyncAt:          &old,
		LastKnowledgeCommit: "commit1",
		KnowledgeHashes:     map[string]string{},
		PointerMapping:      map[string]string{},
	}

	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, Config{StalenessThreshold: time.Hour})
	require.NoError(t, err)

	trigger, err := bridge.CheckTriggers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TriggerStaleness, trigger)
}

func TestDetectConflictsFindsOrphanedPointer(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit1"
	mem := newFakeMemoryStore()
	persister := newFakePersister()

	persister.saved["tenant-a"] = models.SyncState{
		KnowledgeHashes: map[string]string{"adr/gone.md": "somehash"},
		PointerMapping:  map[string]string{"ptr_adr/gone.md": "adr/gone.md"},
	}

	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)

	conflicts, err := bridge.DetectConflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictOrphanedPointer, conflicts[0].Kind)
	assert.Equal(t, "ptr_adr/gone.md", conflicts[0].MemoryID)
}

func TestDetectConflictsFindsHashMismatch(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit1"
	repo.put(testEntry("adr/001.md", models.KnowledgeLayerCompany, "changed content"))

	mem := newFakeMemoryStore()
	mem.AddToLayer(context.Background(), models.LayerCompany, models.MemoryEntry{
		ID: "ptr_adr/001.md", Content: "[adr] adr/001.md\n\nchanged content",
	})

	persister := newFakePersister()
	persister.saved["tenant-a"] = models.SyncState{
		KnowledgeHashes: map[string]string{"adr/001.md": "stale-hash"},
		PointerMapping:  map[string]string{"ptr_adr/001.md": "adr/001.md"},
	}

	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)

	conflicts, err := bridge.DetectConflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictHashMismatch, conflicts[0].Kind)
}

func TestResolveConflictsDeletesOrphanedPointer(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit1"

	mem := newFakeMemoryStore()
	require.NoError(t, mem.AddToLayer(context.Background(), models.LayerCompany, models.MemoryEntry{ID: "ptr_gone"}))

	persister := newFakePersister()
	persister.saved["tenant-a"] = models.SyncState{
		KnowledgeHashes: map[string]string{"gone.md": "hash"},
		PointerMapping:  map[string]string{"ptr_gone": "gone.md"},
	}

	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)

	err = bridge.ResolveConflicts(context.Background(), []Conflict{
		{Kind: ConflictOrphanedPointer, MemoryID: "ptr_gone", KnowledgeID: "gone.md"},
	})
	require.NoError(t, err)

	state := bridge.State()
	assert.NotContains(t, state.PointerMapping, "ptr_gone")
	assert.NotContains(t, state.KnowledgeHashes, "gone.md")

	entry, err := mem.GetFromLayer(context.Background(), models.LayerCompany, "ptr_gone")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRunCycleNoopWhenNoTriggerFires(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit1"
	mem := newFakeMemoryStore()
	persister := newFakePersister()

	now := time.Now()
	persister.saved["tenant-a"] = models.SyncState{
		LastSyncAt:          &now,
		LastKnowledgeCommit: "commit1",
		KnowledgeHashes:     map[string]string{},
		PointerMapping:      map[string]string{},
	}

	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, bridge.RunCycle(context.Background()))
	assert.Equal(t, uint64(0), bridge.State().Stats.TotalSyncs)
}

func TestSyncIncrementalDeletesMemoryForRemovedEntry(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	repo.head = "commit1"
	repo.put(testEntry("adr/001.md", models.KnowledgeLayerCompany, "content"))

	mem := newFakeMemoryStore()
	persister := newFakePersister()
	bridge, err := New(context.Background(), "tenant-a", repo, mem, persister, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, bridge.SyncAll(context.Background()))

	repo.remove("adr/001.md")
	repo.head = "commit2"
	require.NoError(t, bridge.SyncIncremental(context.Background()))

	state := bridge.State()
	assert.NotContains(t, state.PointerMapping, "ptr_adr/001.md")

	entry, err := mem.GetFromLayer(context.Background(), models.LayerCompany, "ptr_adr/001.md")
	require.NoError(t, err)
	assert.Nil(t, entry)
}
