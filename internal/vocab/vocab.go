// Package vocab resolves vocabulary terms to their equivalence classes in the
// generalization/specialization hierarchy.
package vocab

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/variantkb/kbmatch/internal/kb"
)

// termSetCacheSize bounds the memo cache for TermSet. Keys are sorted tuples
// of base term names, so the working set is small in practice.
const termSetCacheSize = 512

// termReturnProperties are the fields fetched for vocabulary records.
var termReturnProperties = []string{"@rid", "@class", "name", "sourceId", "sourceIdVersion", "deprecated"}

// Resolver computes sets of interchangeable vocabulary terms.
type Resolver struct {
	client        kb.Client
	ontologyClass string
	memo          *lru.Cache[string, []*kb.OntologyTerm]
	logger        *zap.Logger
}

// NewResolver creates a resolver over the Vocabulary class.
func NewResolver(client kb.Client) *Resolver {
	memo, _ := lru.New[string, []*kb.OntologyTerm](termSetCacheSize)
	return &Resolver{
		client:        client,
		ontologyClass: kb.ClassVocabulary,
		memo:          memo,
		logger:        zap.NewNop(),
	}
}

// SetLogger sets the logger for trace messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// InvalidateCache drops all memoized term sets.
func (r *Resolver) InvalidateCache() {
	r.memo.Purge()
}

// TermTree returns the terms interchangeable with base for matching:
// its generalizations and its specializations, deduplicated by record id.
// The two directions are queried separately so that sibling terms reachable
// through a shared parent are never included. A non-empty excludeSubtree
// prunes that subtree's descendants from the generalization side.
func (r *Resolver) TermTree(ctx context.Context, base, excludeSubtree string) ([]*kb.OntologyTerm, error) {
	children, err := r.treeQuery(ctx, base, kb.TraverseDescendants, 0)
	if err != nil {
		return nil, fmt.Errorf("term specializations (%s): %w", base, err)
	}

	parents, err := r.EquivalentTerms(ctx, base, excludeSubtree)
	if err != nil {
		return nil, err
	}

	set := kb.NewResultSet()
	for _, t := range children {
		set.Add(t)
	}
	for _, t := range parents {
		set.Add(t)
	}
	return asTerms(set.Records()), nil
}

// EquivalentTerms returns base and its generalizations (broader concepts),
// optionally pruned of any term under excludeSubtree.
func (r *Resolver) EquivalentTerms(ctx context.Context, base, excludeSubtree string) ([]*kb.OntologyTerm, error) {
	parents, err := r.treeQuery(ctx, base, kb.TraverseAncestors, 0)
	if err != nil {
		return nil, fmt.Errorf("term generalizations (%s): %w", base, err)
	}

	if excludeSubtree == "" {
		return parents, nil
	}

	excluded, err := r.treeQuery(ctx, excludeSubtree, kb.TraverseDescendants, 0)
	if err != nil {
		return nil, fmt.Errorf("term exclusion subtree (%s): %w", excludeSubtree, err)
	}
	drop := make(map[string]bool, len(excluded))
	for _, t := range excluded {
		drop[t.ID] = true
	}

	kept := parents[:0:0]
	for _, t := range parents {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	if len(kept) < len(parents) {
		r.logger.Debug("pruned excluded subtree from equivalent terms",
			zap.String("base", base),
			zap.String("exclude", excludeSubtree),
			zap.Int("pruned", len(parents)-len(kept)))
	}
	return kept, nil
}

// ChildTerms returns the immediate specializations of base, excluding base
// itself.
func (r *Resolver) ChildTerms(ctx context.Context, base string) ([]*kb.OntologyTerm, error) {
	terms, err := r.treeQuery(ctx, base, kb.TraverseDescendants, 1)
	if err != nil {
		return nil, fmt.Errorf("term children (%s): %w", base, err)
	}
	children := terms[:0:0]
	for _, t := range terms {
		if !strings.EqualFold(t.Name, base) {
			children = append(children, t)
		}
	}
	return children, nil
}

// TermByName returns the single term with the given name, failing when zero
// or more than one match.
func (r *Resolver) TermByName(ctx context.Context, name string) (*kb.OntologyTerm, error) {
	records, err := r.client.Query(ctx, &kb.Query{
		Target:           kb.Target{Class: r.ontologyClass},
		Filters:          kb.Cond{Attr: "name", Value: name},
		ReturnProperties: termReturnProperties,
	})
	if err != nil {
		return nil, fmt.Errorf("term lookup (%s): %w", name, err)
	}
	switch len(records) {
	case 0:
		return nil, &kb.TermNotFoundError{Name: name}
	case 1:
		term, ok := records[0].(*kb.OntologyTerm)
		if !ok {
			return nil, fmt.Errorf("term lookup (%s): unexpected record class %s", name, records[0].ClassName())
		}
		return term, nil
	default:
		return nil, &kb.AmbiguousTermError{Name: name, Count: len(records)}
	}
}

// TermSet returns the record ids of the union of descendant-only sets for
// each base term. Results are memoized per unique sorted tuple of base terms.
func (r *Resolver) TermSet(ctx context.Context, baseTerms []string) (map[string]bool, error) {
	key := memoKey(baseTerms)
	if terms, ok := r.memo.Get(key); ok {
		return ridSet(terms), nil
	}

	set := kb.NewResultSet()
	for _, base := range baseTerms {
		terms, err := r.treeQuery(ctx, base, kb.TraverseDescendants, 0)
		if err != nil {
			return nil, fmt.Errorf("term set (%s): %w", base, err)
		}
		for _, t := range terms {
			set.Add(t)
		}
	}

	terms := asTerms(set.Records())
	r.memo.Add(key, terms)
	return ridSet(terms), nil
}

// treeQuery fetches one direction of the subclass tree around the named term
// and disambiguates the result along similarity edges.
func (r *Resolver) treeQuery(ctx context.Context, base string, kind kb.Traversal, depth int) ([]*kb.OntologyTerm, error) {
	records, err := r.client.Query(ctx, &kb.Query{
		Target: kb.Target{Subquery: &kb.Query{
			Target:  kb.Target{Class: r.ontologyClass},
			Filters: kb.Cond{Attr: "name", Value: base},
			Kind:    kind,
			Depth:   depth,
		}},
		Kind:             kb.TraverseSimilarTo,
		TreeEdges:        []string{},
		ReturnProperties: termReturnProperties,
	})
	if err != nil {
		return nil, err
	}
	return asTerms(records), nil
}

func asTerms(records []kb.Record) []*kb.OntologyTerm {
	terms := make([]*kb.OntologyTerm, 0, len(records))
	for _, rec := range records {
		if t, ok := rec.(*kb.OntologyTerm); ok {
			terms = append(terms, t)
		}
	}
	return terms
}

func ridSet(terms []*kb.OntologyTerm) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		set[t.ID] = true
	}
	return set
}

func memoKey(baseTerms []string) string {
	sorted := make([]string, len(baseTerms))
	copy(sorted, baseTerms)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
