package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
)

// exportNode and exportEdge are the row shapes read back for export,
// independent of models.GraphNode/GraphEdge so export stays decoupled
// from the write-path property encoding.
type exportNode struct {
	ID       string `json:"id"`
	NodeType string `json:"node_type"`
	Label    string `json:"label"`
}

type exportEdge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	EdgeType string `json:"edge_type"`
}

func (s *Store) exportNodes(ctx context.Context, tenantID string, nodeTypeFilter *string) ([]exportNode, error) {
	query := `SELECT id, node_type, label FROM graph_nodes WHERE tenant_id = $1 AND deleted_at IS NULL`
	args := []any{tenantID}
	if nodeTypeFilter != nil {
		query += ` AND node_type = $2`
		args = append(args, *nodeTypeFilter)
	}

	rows, err := s.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "query export nodes", err)
	}
	defer rows.Close()

	var nodes []exportNode
	for rows.Next() {
		var n exportNode
		if err := rows.Scan(&n.ID, &n.NodeType, &n.Label); err != nil {
			return nil, apperr.Wrap(apperr.KindStorage, "scan export node", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Store) exportEdges(ctx context.Context, tenantID string, nodeTypeFilter *string) ([]exportEdge, error) {
	query := `SELECT ge.from_node_id, ge.to_node_id, ge.edge_type
		FROM graph_edges ge WHERE ge.tenant_id = $1 AND ge.deleted_at IS NULL`
	args := []any{tenantID}
	if nodeTypeFilter != nil {
		query = `SELECT ge.from_node_id, ge.to_node_id, ge.edge_type
			FROM graph_edges ge
			JOIN graph_nodes gn ON gn.id = ge.from_node_id AND gn.tenant_id = ge.tenant_id
			WHERE ge.tenant_id = $1 AND ge.deleted_at IS NULL AND gn.node_type = $2`
		args = append(args, *nodeTypeFilter)
	}

	rows, err := s.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "query export edges", err)
	}
	defer rows.Close()

	var edges []exportEdge
	for rows.Next() {
		var e exportEdge
		if err := rows.Scan(&e.SourceID, &e.TargetID, &e.EdgeType); err != nil {
			return nil, apperr.Wrap(apperr.KindStorage, "scan export edge", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ExportDOT renders the tenant's graph (optionally restricted to one
// node type) as a Graphviz DOT digraph.
func (s *Store) ExportDOT(ctx context.Context, tenantID string, nodeTypeFilter *string) (string, error) {
	nodes, err := s.exportNodes(ctx, tenantID, nodeTypeFilter)
	if err != nil {
		return "", err
	}
	edges, err := s.exportEdges(ctx, tenantID, nodeTypeFilter)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("digraph G {\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "  %q [label=%q type=%q];\n", n.ID, n.Label, n.NodeType)
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.SourceID, e.TargetID, e.EdgeType)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// JSONExport is the `{nodes[], edges[]}` export shape.
type JSONExport struct {
	Nodes []exportNode `json:"nodes"`
	Edges []exportEdge `json:"edges"`
}

// ExportJSON renders the tenant's full graph as nodes/edges arrays.
func (s *Store) ExportJSON(ctx context.Context, tenantID string) (JSONExport, error) {
	nodes, err := s.exportNodes(ctx, tenantID, nil)
	if err != nil {
		return JSONExport{}, err
	}
	edges, err := s.exportEdges(ctx, tenantID, nil)
	if err != nil {
		return JSONExport{}, err
	}
	return JSONExport{Nodes: nodes, Edges: edges}, nil
}

// MarshalJSON renders a JSONExport, mainly used by HTTP handlers.
func (e JSONExport) MarshalJSON() ([]byte, error) {
	type alias JSONExport
	if e.Nodes == nil {
		e.Nodes = []exportNode{}
	}
	if e.Edges == nil {
		e.Edges = []exportEdge{}
	}
	return json.Marshal(alias(e))
}
