package wsgateway

import (
	"sync"
	"time"
)

// presenceShardCount is the number of independent lock-guarded shards
// the presence tracker splits tenants across.
const presenceShardCount = 16

// PresenceEntry records a connected user's last-seen time within a tenant.
type PresenceEntry struct {
	UserID       string
	ConnectionID string
	LastSeen     time.Time
}

type presenceShard struct {
	mu      sync.RWMutex
	entries map[string]map[string]PresenceEntry // tenantID -> connectionID -> entry
}

// PresenceTracker tracks which users are currently connected per tenant,
// sharded by tenant ID to bound lock contention across tenants.
type PresenceTracker struct {
	shards       [presenceShardCount]*presenceShard
	heartbeatTTL time.Duration
}

// NewPresenceTracker constructs a tracker that considers a connection
// stale once it hasn't been touched within ttl.
func NewPresenceTracker(ttl time.Duration) *PresenceTracker {
	t := &PresenceTracker{heartbeatTTL: ttl}
	for i := range t.shards {
		t.shards[i] = &presenceShard{entries: make(map[string]map[string]PresenceEntry)}
	}
	return t
}

func (t *PresenceTracker) shardFor(tenantID string) *presenceShard {
	h := fnv32(tenantID)
	return t.shards[h%presenceShardCount]
}

// fnv32 is a small non-cryptographic hash used only to pick a shard.
func fnv32(s string) uint32 {
	const prime = 16777619
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// Touch records (or refreshes) a user's presence in a tenant.
func (t *PresenceTracker) Touch(tenantID, userID, connectionID string, now time.Time) {
	shard := t.shardFor(tenantID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	byConn, ok := shard.entries[tenantID]
	if !ok {
		byConn = make(map[string]PresenceEntry)
		shard.entries[tenantID] = byConn
	}
	byConn[connectionID] = PresenceEntry{UserID: userID, ConnectionID: connectionID, LastSeen: now}
}

// Remove drops a connection's presence entry, e.g. on disconnect.
func (t *PresenceTracker) Remove(tenantID, connectionID string) {
	shard := t.shardFor(tenantID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if byConn, ok := shard.entries[tenantID]; ok {
		delete(byConn, connectionID)
		if len(byConn) == 0 {
			delete(shard.entries, tenantID)
		}
	}
}

// Active returns the presence entries for a tenant that are not stale
// relative to now.
func (t *PresenceTracker) Active(tenantID string, now time.Time) []PresenceEntry {
	shard := t.shardFor(tenantID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	byConn := shard.entries[tenantID]
	out := make([]PresenceEntry, 0, len(byConn))
	for _, entry := range byConn {
		if now.Sub(entry.LastSeen) <= t.heartbeatTTL {
			out = append(out, entry)
		}
	}
	return out
}

// Sweep removes every entry across all tenants that has gone stale
// relative to now. Intended to run on a fixed interval.
func (t *PresenceTracker) Sweep(now time.Time) {
	for _, shard := range t.shards {
		shard.mu.Lock()
		for tenantID, byConn := range shard.entries {
			for connID, entry := range byConn {
				if now.Sub(entry.LastSeen) > t.heartbeatTTL {
					delete(byConn, connID)
				}
			}
			if len(byConn) == 0 {
				delete(shard.entries, tenantID)
			}
		}
		shard.mu.Unlock()
	}
}
