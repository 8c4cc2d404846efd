package graph

import "codearch/internal/model"

// Node is an entity that takes part in at least one call edge.
type Node struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Kind      model.EntityKind `json:"type"`
	InDegree  int              `json:"in_degree"`
	OutDegree int              `json:"out_degree"`
}

// Edge is a directed call between two entities.
type Edge struct {
	Source string             `json:"source"`
	Target string             `json:"target"`
	Kind   model.RelationKind `json:"type"`
}

// CallGraph is the projection of the calls relationships of a repository.
type CallGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
