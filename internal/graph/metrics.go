package graph

// Stats summarises a call graph for reporting.
type Stats struct {
	Nodes       int
	Edges       int
	MaxInDegree int
	MostCalled  string
}

func (g CallGraph) Stats() Stats {
	s := Stats{Nodes: len(g.Nodes), Edges: len(g.Edges)}
	for _, n := range g.Nodes {
		if n.InDegree > s.MaxInDegree {
			s.MaxInDegree = n.InDegree
			s.MostCalled = n.Name
		}
	}
	return s
}
