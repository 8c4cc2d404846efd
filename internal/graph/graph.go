package graph

import "codearch/internal/model"

// BuildCallGraph projects the calls relationships in rels onto entities. Nodes
// appear in the order they are first referenced by an edge; endpoints missing
// from entities keep their edge but get no node.
func BuildCallGraph(rels []model.Relationship, entities []model.Entity) CallGraph {
	byID := make(map[string]model.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	g := CallGraph{Nodes: []Node{}, Edges: []Edge{}}
	pos := make(map[string]int)
	node := func(id string) *Node {
		if i, ok := pos[id]; ok {
			return &g.Nodes[i]
		}
		e, ok := byID[id]
		if !ok {
			return nil
		}
		pos[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{ID: e.ID, Name: e.Name, Kind: e.Kind})
		return &g.Nodes[len(g.Nodes)-1]
	}

	for _, r := range rels {
		if r.Kind != model.RelationCalls || !r.HasTarget() {
			continue
		}
		g.Edges = append(g.Edges, Edge{Source: r.SourceID, Target: r.TargetID, Kind: r.Kind})
		if src := node(r.SourceID); src != nil {
			src.OutDegree++
		}
		if dst := node(r.TargetID); dst != nil {
			dst.InDegree++
		}
	}
	return g
}
