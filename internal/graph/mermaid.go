package graph

import (
	"fmt"
	"strings"
)

// Mermaid renders the call graph as a Mermaid flowchart. Node ids are
// positional so entities sharing a name stay distinct.
func (g CallGraph) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("```mermaid\ngraph TD\n")

	ids := make(map[string]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[n.ID] = fmt.Sprintf("n%d", i)
		sb.WriteString(fmt.Sprintf("    %s[%q]\n", ids[n.ID], n.Name))
	}
	for _, e := range g.Edges {
		src, okSrc := ids[e.Source]
		dst, okDst := ids[e.Target]
		if !okSrc || !okDst {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", src, dst))
	}

	sb.WriteString("```\n")
	return sb.String()
}

// Mermaid renders the non-zero cells of the matrix as a left-to-right file graph,
// labelling edges with their import count when it is above one.
func (m *DependencyMatrix) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("```mermaid\ngraph LR\n")

	for i, p := range m.Paths {
		sb.WriteString(fmt.Sprintf("    f%d[%q]\n", i, p))
	}
	for i := range m.Paths {
		for j, n := range m.counts[i] {
			switch {
			case n == 0:
			case n == 1:
				sb.WriteString(fmt.Sprintf("    f%d --> f%d\n", i, j))
			default:
				sb.WriteString(fmt.Sprintf("    f%d -->|%d| f%d\n", i, n, j))
			}
		}
	}

	sb.WriteString("```\n")
	return sb.String()
}
