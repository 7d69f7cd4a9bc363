package graph

import (
	"github.com/loremaker/loregraph/model"
)

// GraphDB is the narrow read interface traversal needs
type GraphDB interface {
	SelectNodeByID(id int64) (*model.Node, error)
	SelectEdgesFromNode(nodeID int64) ([]*model.Edge, error)
	SelectEdgesToNode(nodeID int64) ([]*model.Edge, error)
}

// TraversalResult contains a node and its distance from the source
type TraversalResult struct {
	Node     *model.Node
	Distance int
	Path     []int64 // Path from source to this node
}

// BFS performs breadth-first search from a source node. edgeTypes filters
// which edges are followed; empty means all. When followIncoming is true,
// edges are followed against their direction as well.
func BFS(db GraphDB, sourceID int64, maxHops int, edgeTypes []model.EdgeType, followIncoming bool) ([]*TraversalResult, error) {
	source, err := db.SelectNodeByID(sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, nil
	}

	visited := map[int64]bool{sourceID: true}
	queue := []TraversalResult{{
		Node:     source,
		Distance: 0,
		Path:     []int64{sourceID},
	}}

	var results []*TraversalResult

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		if current.Distance >= maxHops {
			continue
		}

		targets, err := nextHops(db, current.Node.ID, edgeTypes, followIncoming)
		if err != nil {
			return nil, err
		}

		for _, targetID := range targets {
			if visited[targetID] {
				continue
			}

			target, err := db.SelectNodeByID(targetID)
			if err != nil || target == nil {
				continue
			}

			visited[targetID] = true

			newPath := make([]int64, len(current.Path))
			copy(newPath, current.Path)
			newPath = append(newPath, targetID)

			queue = append(queue, TraversalResult{
				Node:     target,
				Distance: current.Distance + 1,
				Path:     newPath,
			})
		}
	}

	return results, nil
}

// nextHops collects the node IDs reachable over one edge
func nextHops(db GraphDB, nodeID int64, edgeTypes []model.EdgeType, followIncoming bool) ([]int64, error) {
	outgoing, err := db.SelectEdgesFromNode(nodeID)
	if err != nil {
		return nil, err
	}

	var targets []int64
	for _, edge := range outgoing {
		if matchesType(edge.Type, edgeTypes) {
			targets = append(targets, edge.TargetID)
		}
	}

	if followIncoming {
		incoming, err := db.SelectEdgesToNode(nodeID)
		if err != nil {
			return nil, err
		}
		for _, edge := range incoming {
			if matchesType(edge.Type, edgeTypes) {
				targets = append(targets, edge.SourceID)
			}
		}
	}

	return targets, nil
}

func matchesType(edgeType model.EdgeType, edgeTypes []model.EdgeType) bool {
	if len(edgeTypes) == 0 {
		return true
	}
	for _, t := range edgeTypes {
		if edgeType == t {
			return true
		}
	}
	return false
}

// Neighborhood retrieves the nodes within maxHops of a source node,
// excluding the source itself
func Neighborhood(db GraphDB, sourceID int64, maxHops int, edgeTypes []model.EdgeType, followIncoming bool) ([]*model.Node, error) {
	results, err := BFS(db, sourceID, maxHops, edgeTypes, followIncoming)
	if err != nil {
		return nil, err
	}

	var nodes []*model.Node
	for _, result := range results {
		if result.Distance == 0 {
			continue
		}
		nodes = append(nodes, result.Node)
	}

	return nodes, nil
}
