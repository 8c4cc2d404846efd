// Package resolver infers relationships between extracted entities.
//
// Detection is lexical: names are matched by regular expressions over entity
// snippets and resolved through a flat name lookup. Calls on method receivers,
// shadowed names and same-named entities in different files resolve to whichever
// entity was registered last under that name. Expect both false positives and
// misses; callers should treat the output as a navigational hint, not ground truth.
package resolver

import (
	"time"

	"github.com/google/uuid"

	"codearch/internal/model"
)

type ResolveStats struct {
	Attempted int
	Resolved  int
	Skipped   int
}

// NameIndex maps an entity name to the last entity registered under it.
type NameIndex map[string]model.Entity

func NewNameIndex(entities []model.Entity) NameIndex {
	idx := make(NameIndex, len(entities))
	for _, e := range entities {
		idx[e.Name] = e
	}
	return idx
}

// RelationResolver is one stage of the detection chain.
type RelationResolver interface {
	Name() string
	Resolve(entities []model.Entity, idx NameIndex) ([]model.Relationship, ResolveStats)
}

type StageResult struct {
	Resolver  string
	Stats     ResolveStats
	EdgeCount int
}

type ResolverChain struct {
	resolvers []RelationResolver
}

func NewResolverChain(resolvers ...RelationResolver) *ResolverChain {
	return &ResolverChain{resolvers: resolvers}
}

func NewDefaultChain() *ResolverChain {
	return NewResolverChain(NewCallResolver(), NewContainsResolver(), NewInheritsResolver())
}

// Run executes every stage against a lookup built from entities for this call only.
func (c *ResolverChain) Run(entities []model.Entity) ([]model.Relationship, []StageResult) {
	if len(entities) == 0 {
		return nil, nil
	}
	idx := NewNameIndex(entities)

	var rels []model.Relationship
	var out []StageResult
	for _, r := range c.resolvers {
		found, stats := r.Resolve(entities, idx)
		rels = append(rels, found...)
		out = append(out, StageResult{
			Resolver:  r.Name(),
			Stats:     stats,
			EdgeCount: len(rels),
		})
	}
	return rels, out
}

// Detector is the entry point used by the pipeline.
type Detector struct {
	chain *ResolverChain
	now   func() time.Time
}

func NewDetector() *Detector {
	return &Detector{chain: NewDefaultChain(), now: time.Now}
}

// DetectRelationships runs the entity-level stages. Every returned relationship
// points at an entity from the input slice.
func (d *Detector) DetectRelationships(entities []model.Entity) ([]model.Relationship, []StageResult) {
	rels, stages := d.chain.Run(entities)
	d.stamp(rels)
	return rels, stages
}

func (d *Detector) stamp(rels []model.Relationship) {
	now := d.now().UTC()
	for i := range rels {
		if rels[i].ID == "" {
			rels[i].ID = uuid.NewString()
		}
		rels[i].CreatedAt = now
	}
}

func newEdge(source, target model.Entity, kind model.RelationKind) model.Relationship {
	return model.Relationship{
		RepoID:   source.RepoID,
		SourceID: source.ID,
		TargetID: target.ID,
		Kind:     kind,
	}
}
