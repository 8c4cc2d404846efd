package graph

import (
	"bytes"
	"encoding/json"

	"codearch/internal/model"
)

// DependencyMatrix counts import relationships between every ordered pair of files.
// Paths keeps the file enumeration order; the matrix is always complete.
type DependencyMatrix struct {
	Paths  []string
	index  map[string]int
	counts [][]int
}

func NewDependencyMatrix(paths []string) *DependencyMatrix {
	m := &DependencyMatrix{index: make(map[string]int, len(paths))}
	for _, p := range paths {
		if _, dup := m.index[p]; dup {
			continue
		}
		m.index[p] = len(m.Paths)
		m.Paths = append(m.Paths, p)
	}
	m.counts = make([][]int, len(m.Paths))
	for i := range m.counts {
		m.counts[i] = make([]int, len(m.Paths))
	}
	return m
}

// BuildDependencyMatrix fills a matrix over files from the import relationships in
// rels. Imports naming a file outside the set are ignored.
func BuildDependencyMatrix(files []model.File, rels []model.Relationship) *DependencyMatrix {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	m := NewDependencyMatrix(paths)
	for _, r := range rels {
		if r.Kind != model.RelationImports || r.Metadata == nil {
			continue
		}
		m.Add(r.Metadata.SourceFile, r.Metadata.TargetFile)
	}
	return m
}

// Add increments from→to. It reports false when either path is unknown.
func (m *DependencyMatrix) Add(from, to string) bool {
	i, ok := m.index[from]
	if !ok {
		return false
	}
	j, ok := m.index[to]
	if !ok {
		return false
	}
	m.counts[i][j]++
	return true
}

// Count returns the number of imports from→to.
func (m *DependencyMatrix) Count(from, to string) int {
	i, ok := m.index[from]
	if !ok {
		return 0
	}
	j, ok := m.index[to]
	if !ok {
		return 0
	}
	return m.counts[i][j]
}

// Dependencies lists the files from imports, in matrix order.
func (m *DependencyMatrix) Dependencies(from string) []string {
	i, ok := m.index[from]
	if !ok {
		return nil
	}
	var out []string
	for j, c := range m.counts[i] {
		if c > 0 {
			out = append(out, m.Paths[j])
		}
	}
	return out
}

// MarshalJSON renders the matrix as {source: {target: count}} with keys in file order.
func (m *DependencyMatrix) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, src := range m.Paths {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, src); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, dst := range m.Paths {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, dst); err != nil {
				return nil, err
			}
			b, _ := json.Marshal(m.counts[i][j])
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}
