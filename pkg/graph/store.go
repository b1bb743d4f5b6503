// Package graph implements a tenant-scoped property graph store:
// atomic batch writes, BFS-based traversal and shortest path, soft
// delete, and DOT/JSON export.
package graph

import (
	"context"
	"encoding/json"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
	"github.com/kikokikok/aeterna-sub003/pkg/database"
	"github.com/kikokikok/aeterna-sub003/pkg/models"
	"github.com/kikokikok/aeterna-sub003/pkg/retry"
)

// maxRetryAttempts bounds the exponential-backoff retry applied to
// every persistence upsert/read below, covering transient connection
// failures without masking genuine storage errors.
const maxRetryAttempts = 3

// Store is the Postgres-backed graph store. Every method takes a
// tenant ID and scopes its query accordingly — no row from one tenant
// is ever visible to another.
type Store struct {
	client *database.Client
}

// New wraps a database.Client.
func New(client *database.Client) *Store {
	return &Store{client: client}
}

// AddNodesAndEdgesAtomic inserts/upserts nodes and edges within a
// single transaction: either all of it lands, or none does.
func (s *Store) AddNodesAndEdgesAtomic(ctx context.Context, tenantID string, nodes []models.GraphNode, edges []models.GraphEdge) error {
	return retry.Do(ctx, maxRetryAttempts, func() error {
		tx, err := s.client.Pool().Begin(ctx)
		if err != nil {
			return database.WrapError("begin graph write transaction", err)
		}
		defer tx.Rollback(ctx)

		for _, n := range nodes {
			props, err := json.Marshal(n.Properties)
			if err != nil {
				return apperr.Wrap(apperr.KindSerialization, "marshal node properties", err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO graph_nodes (id, tenant_id, node_type, label, properties)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET
					node_type = EXCLUDED.node_type,
					label = EXCLUDED.label,
					properties = EXCLUDED.properties
			`, n.ID, tenantID, n.NodeType, n.Label, props)
			if err != nil {
				return database.WrapError("upsert graph node", err)
			}
		}

		for _, e := range edges {
			props, err := json.Marshal(e.Properties)
			if err != nil {
				return apperr.Wrap(apperr.KindSerialization, "marshal edge properties", err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO graph_edges (id, tenant_id, from_node_id, to_node_id, edge_type, confidence, properties)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO UPDATE SET
					confidence = EXCLUDED.confidence,
					properties = EXCLUDED.properties
			`, e.ID, tenantID, e.SourceID, e.TargetID, e.Relation, e.Confidence, props)
			if err != nil {
				return database.WrapError("upsert graph edge", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return database.WrapError("commit graph write transaction", err)
		}
		return nil
	})
}

// SoftDeleteNode marks a node removed: it's excluded from future
// traversals, but its edges are retained for historical
// reconstruction.
func (s *Store) SoftDeleteNode(ctx context.Context, tenantID, nodeID string) error {
	var affected int64
	err := retry.Do(ctx, maxRetryAttempts, func() error {
		tag, err := s.client.Pool().Exec(ctx, `
			UPDATE graph_nodes SET deleted_at = now()
			WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		`, tenantID, nodeID)
		if err != nil {
			return database.WrapError("soft delete node", err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// GetStats reports node and edge counts for a tenant (excluding
// soft-deleted nodes).
func (s *Store) GetStats(ctx context.Context, tenantID string) (models.GraphStats, error) {
	var stats models.GraphStats
	err := retry.Do(ctx, maxRetryAttempts, func() error {
		err := s.client.Pool().QueryRow(ctx, `
			SELECT
				(SELECT count(*) FROM graph_nodes WHERE tenant_id = $1 AND deleted_at IS NULL),
				(SELECT count(*) FROM graph_edges WHERE tenant_id = $1 AND deleted_at IS NULL)
		`, tenantID).Scan(&stats.NodeCount, &stats.EdgeCount)
		if err != nil {
			return database.WrapError("get graph stats", err)
		}
		return nil
	})
	if err != nil {
		return models.GraphStats{}, err
	}
	return stats, nil
}

// HealthCheck verifies connectivity to the underlying store.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Pool().Ping(ctx); err != nil {
		return apperr.Wrap(apperr.KindStorage, "graph store health check", err)
	}
	return nil
}

// ReadinessCheck reports whether the store is ready to serve traffic,
// kept distinct from HealthCheck (ready vs. merely reachable) even
// though both checks are identical for a single-pool store.
func (s *Store) ReadinessCheck(ctx context.Context) error {
	return s.HealthCheck(ctx)
}

// neighborRow is an adjacency edge used by both FindRelated and
// ShortestPath's BFS.
type neighborRow struct {
	fromID string
	toID   string
}

// loadAdjacency pulls every non-deleted, tenant-scoped edge as an
// undirected adjacency list: traversal treats edges as bidirectional
// for reachability purposes, joining on either endpoint.
func (s *Store) loadAdjacency(ctx context.Context, tenantID string) (map[string][]string, error) {
	var adjacency map[string][]string
	err := retry.Do(ctx, maxRetryAttempts, func() error {
		adjacency = make(map[string][]string)
		rows, err := s.client.Pool().Query(ctx, `
			SELECT ge.from_node_id, ge.to_node_id
			FROM graph_edges ge
			JOIN graph_nodes gn_from ON gn_from.id = ge.from_node_id AND gn_from.deleted_at IS NULL
			JOIN graph_nodes gn_to ON gn_to.id = ge.to_node_id AND gn_to.deleted_at IS NULL
			WHERE ge.tenant_id = $1 AND ge.deleted_at IS NULL
		`, tenantID)
		if err != nil {
			return database.WrapError("load graph adjacency", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e neighborRow
			if err := rows.Scan(&e.fromID, &e.toID); err != nil {
				return database.WrapError("scan graph edge", err)
			}
			adjacency[e.fromID] = append(adjacency[e.fromID], e.toID)
			adjacency[e.toID] = append(adjacency[e.toID], e.fromID)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return adjacency, nil
}

// FindRelated performs a breadth-first traversal from start up to
// depth hops, tenant-filtered, excluding the start node itself.
func (s *Store) FindRelated(ctx context.Context, tenantID, start string, depth int) ([]string, error) {
	adjacency, err := s.loadAdjacency(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{start: true}
	frontier := []string{start}
	var result []string

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, node := range frontier {
			for _, neighbor := range adjacency[node] {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				result = append(result, neighbor)
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return result, nil
}

// ShortestPath finds the shortest node path from src to dst via BFS
// with parent back-pointers, optionally bounded by maxHops. Returns
// (nil, false) if no path exists within the bound.
func (s *Store) ShortestPath(ctx context.Context, tenantID, src, dst string, maxHops *int) ([]string, bool, error) {
	if src == dst {
		return []string{src}, true, nil
	}

	adjacency, err := s.loadAdjacency(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}

	parent := map[string]string{src: ""}
	visited := map[string]bool{src: true}
	frontier := []string{src}
	hops := 0

	for len(frontier) > 0 {
		if maxHops != nil && hops >= *maxHops {
			break
		}
		hops++

		var next []string
		for _, node := range frontier {
			for _, neighbor := range adjacency[node] {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				parent[neighbor] = node
				if neighbor == dst {
					return reconstructPath(parent, src, dst), true, nil
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return nil, false, nil
}

func reconstructPath(parent map[string]string, src, dst string) []string {
	path := []string{dst}
	current := dst
	for current != src {
		current = parent[current]
		path = append([]string{current}, path...)
	}
	return path
}
