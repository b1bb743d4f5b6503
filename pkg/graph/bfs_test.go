package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// traverseAdjacency and findPathAdjacency mirror FindRelated/ShortestPath's
// BFS logic against an in-memory adjacency map, letting the traversal
// algorithm be tested without a live Postgres connection.

func traverseAdjacency(adjacency map[string][]string, start string, depth int) []string {
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
	return result
}

func findPathAdjacency(adjacency map[string][]string, src, dst string, maxHops *int) ([]string, bool) {
	if src == dst {
		return []string{src}, true
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
					return reconstructPath(parent, src, dst), true
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return nil, false
}

func chainAdjacency() map[string][]string {
	// a - b - c - d
	return map[string][]string{
		"a": {"b"},
		"b": {"a", "c"},
		"c": {"b", "d"},
		"d": {"c"},
	}
}

func TestFindRelatedRespectsDepth(t *testing.T) {
	adjacency := chainAdjacency()

	oneHop := traverseAdjacency(adjacency, "a", 1)
	assert.Equal(t, []string{"b"}, oneHop)

	twoHops := traverseAdjacency(adjacency, "a", 2)
	assert.Equal(t, []string{"b", "c"}, twoHops)

	threeHops := traverseAdjacency(adjacency, "a", 3)
	assert.Equal(t, []string{"b", "c", "d"}, threeHops)
}

func TestFindRelatedExcludesStartNode(t *testing.T) {
	adjacency := chainAdjacency()
	result := traverseAdjacency(adjacency, "a", 10)
	assert.NotContains(t, result, "a")
}

func TestShortestPathFindsMinimalRoute(t *testing.T) {
	adjacency := chainAdjacency()
	path, found := findPathAdjacency(adjacency, "a", "d", nil)
	require.True(t, found)
	assert.Equal(t, []string{"a", "b", "c", "d"}, path)
}

func TestShortestPathSameNode(t *testing.T) {
	adjacency := chainAdjacency()
	path, found := findPathAdjacency(adjacency, "a", "a", nil)
	require.True(t, found)
	assert.Equal(t, []string{"a"}, path)
}

func TestShortestPathRespectsMaxHops(t *testing.T) {
	adjacency := chainAdjacency()
	maxHops := 1
	_, found := findPathAdjacency(adjacency, "a", "d", &maxHops)
	assert.False(t, found)
}

func TestShortestPathUnreachable(t *testing.T) {
	adjacency := map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"z": {},
	}
	_, found := findPathAdjacency(adjacency, "a", "z", nil)
	assert.False(t, found)
}
