package graph

import "slices"

type dfsFrame struct {
	node int
	next int
}

// FindCycles reports dependency cycles found by a depth-first walk over m. Each
// cycle is the path from the re-entered file back to itself, so a self import is
// [a, a]. Identical sequences are reported once; rotations of the same cycle
// reached from different roots are not merged.
func FindCycles(m *DependencyMatrix) [][]string {
	if m == nil {
		return nil
	}
	n := len(m.Paths)
	visited := make([]bool, n)
	onStack := make([]bool, n)
	var cycles [][]string

	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}
		var path []int
		var stack []dfsFrame

		push := func(v int) {
			visited[v] = true
			onStack[v] = true
			path = append(path, v)
			stack = append(stack, dfsFrame{node: v})
		}
		push(root)

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= n {
				onStack[top.node] = false
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
				continue
			}
			nb := top.next
			top.next++
			if m.counts[top.node][nb] == 0 {
				continue
			}
			switch {
			case !visited[nb]:
				push(nb)
			case onStack[nb]:
				start := slices.Index(path, nb)
				cycle := make([]string, 0, len(path)-start+1)
				for _, v := range path[start:] {
					cycle = append(cycle, m.Paths[v])
				}
				cycle = append(cycle, m.Paths[nb])
				if !containsCycle(cycles, cycle) {
					cycles = append(cycles, cycle)
				}
			}
		}
	}
	return cycles
}

func containsCycle(cycles [][]string, c []string) bool {
	for _, existing := range cycles {
		if slices.Equal(existing, c) {
			return true
		}
	}
	return false
}
