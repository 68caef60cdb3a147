// Package kbtest provides an in-memory knowledge base for tests. It
// implements kb.Client over a static record set with similarity-closure,
// subclass-tree, and filter evaluation semantics matching the remote store.
package kbtest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/variantkb/kbmatch/internal/kb"
)

// Edge connects two records. Out is the more specific side for tree edges
// (child SubClassOf parent, positional Infers category).
type Edge struct {
	Class string
	Out   string
	In    string
}

// Store is an in-memory kb.Client.
type Store struct {
	records map[string]kb.Record
	index   map[string]int
	nextIdx int
	edges   []Edge
	parsed  map[string]*kb.ParsedVariant
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records: make(map[string]kb.Record),
		index:   make(map[string]int),
		parsed:  make(map[string]*kb.ParsedVariant),
	}
}

// Add inserts records, replacing any previous record with the same id.
func (s *Store) Add(records ...kb.Record) {
	for _, r := range records {
		if _, ok := s.records[r.RID()]; !ok {
			s.index[r.RID()] = s.nextIdx
			s.nextIdx++
		}
		s.records[r.RID()] = r
	}
}

// AddEdge inserts a directed edge between two stored records.
func (s *Store) AddEdge(class, out, in string) {
	s.edges = append(s.edges, Edge{Class: class, Out: out, In: in})
}

// AddParsed registers the parse result for a notation string.
func (s *Store) AddParsed(notation string, parsed *kb.ParsedVariant) {
	s.parsed[notation] = parsed
}

// Parse returns the scripted parse result for the notation.
func (s *Store) Parse(_ context.Context, notation string, requireFeatures bool) (*kb.ParsedVariant, error) {
	parsed, ok := s.parsed[notation]
	if !ok {
		return nil, fmt.Errorf("unable to parse notation (%s)", notation)
	}
	if requireFeatures && parsed.Reference1 == "" {
		return nil, fmt.Errorf("notation (%s) does not name a feature", notation)
	}
	clone := *parsed
	return &clone, nil
}

// GetRecordsByID fetches records by id, failing if any id does not resolve.
func (s *Store) GetRecordsByID(_ context.Context, ids []string) ([]kb.Record, error) {
	records := make([]kb.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.records[id]; ok {
			records = append(records, r)
		}
	}
	if len(records) != len(ids) {
		return nil, &kb.RecordNotFoundError{Requested: len(ids), Fetched: len(records)}
	}
	return records, nil
}

// Query evaluates a declarative query against the stored records.
func (s *Store) Query(_ context.Context, q *kb.Query) ([]kb.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ids, err := s.eval(q)
	if err != nil {
		return nil, err
	}
	// store insertion order keeps results deterministic
	sort.Slice(ids, func(i, j int) bool { return s.index[ids[i]] < s.index[ids[j]] })

	records := make([]kb.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, s.records[id])
	}
	return records, nil
}

func (s *Store) eval(q *kb.Query) ([]string, error) {
	start, err := s.selectTarget(q.Target)
	if err != nil {
		return nil, err
	}

	if q.Filters != nil {
		filtered := start[:0:0]
		for _, id := range start {
			ok, err := s.matches(s.records[id], q.Filters)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, id)
			}
		}
		start = filtered
	}

	switch q.Kind {
	case kb.TraverseNone:
		return start, nil
	case kb.TraverseSimilarTo:
		edges := q.Edges
		if edges == nil {
			edges = kb.SimilarityEdges
		}
		return s.closure(start, append(append([]string{}, edges...), q.TreeEdges...), both, 0), nil
	case kb.TraverseAncestors:
		return s.closure(start, treeEdges(q), outgoing, q.Depth), nil
	case kb.TraverseDescendants:
		return s.closure(start, treeEdges(q), incoming, q.Depth), nil
	default:
		return nil, fmt.Errorf("unknown traversal mode (%d)", int(q.Kind))
	}
}

func treeEdges(q *kb.Query) []string {
	if q.TreeEdges != nil {
		return q.TreeEdges
	}
	return []string{kb.EdgeSubClassOf}
}

func (s *Store) selectTarget(t kb.Target) ([]string, error) {
	switch {
	case t.Subquery != nil:
		return s.eval(t.Subquery)
	case t.RecordIDs != nil:
		var ids []string
		for _, id := range t.RecordIDs {
			if _, ok := s.records[id]; ok {
				ids = append(ids, id)
			}
		}
		return ids, nil
	default:
		var ids []string
		for id, r := range s.records {
			if r.ClassName() == t.Class {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}
}

type direction int

const (
	outgoing direction = iota
	incoming
	both
)

// closure walks edges of the given classes from the start set, returning the
// start records plus everything reachable. depth 0 is unbounded.
func (s *Store) closure(start []string, classes []string, dir direction, depth int) []string {
	allowed := make(map[string]bool, len(classes))
	for _, c := range classes {
		allowed[c] = true
	}

	seen := make(map[string]bool, len(start))
	frontier := append([]string{}, start...)
	for _, id := range frontier {
		seen[id] = true
	}

	for level := 0; len(frontier) > 0 && (depth == 0 || level < depth); level++ {
		var next []string
		for _, e := range s.edges {
			if !allowed[e.Class] {
				continue
			}
			for _, id := range frontier {
				if (dir == outgoing || dir == both) && e.Out == id && !seen[e.In] {
					seen[e.In] = true
					next = append(next, e.In)
				}
				if (dir == incoming || dir == both) && e.In == id && !seen[e.Out] {
					seen[e.Out] = true
					next = append(next, e.Out)
				}
			}
		}
		frontier = next
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) matches(r kb.Record, f kb.Filter) (bool, error) {
	switch f := f.(type) {
	case kb.And:
		for _, clause := range f {
			ok, err := s.matches(r, clause)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case kb.Or:
		for _, clause := range f {
			ok, err := s.matches(r, clause)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case kb.Cond:
		return s.matchCond(r, f)
	default:
		return false, fmt.Errorf("unknown filter type %T", f)
	}
}

func (s *Store) matchCond(r kb.Record, c kb.Cond) (bool, error) {
	got, err := attrValue(r, c.Attr)
	if err != nil {
		return false, err
	}

	if c.In {
		want, ok := c.Value.([]string)
		if !ok {
			return false, fmt.Errorf("IN comparison on %s requires a string list, got %T", c.Attr, c.Value)
		}
		gotStr, ok := got.(string)
		if !ok {
			return false, nil
		}
		for _, w := range want {
			if equalAttr(c.Attr, gotStr, w) {
				return true, nil
			}
		}
		return false, nil
	}

	if c.Value == nil {
		return got == nil || got == "", nil
	}
	switch want := c.Value.(type) {
	case string:
		gotStr, ok := got.(string)
		return ok && equalAttr(c.Attr, gotStr, want), nil
	case bool:
		gotBool, ok := got.(bool)
		return ok && gotBool == want, nil
	default:
		return false, fmt.Errorf("unsupported comparison value %T for %s", c.Value, c.Attr)
	}
}

// equalAttr compares attribute values; names and source ids are
// case-insensitive in the store.
func equalAttr(attr, got, want string) bool {
	if attr == "name" || attr == "sourceId" {
		return strings.EqualFold(got, want)
	}
	return got == want
}

func attrValue(r kb.Record, attr string) (any, error) {
	switch rec := r.(type) {
	case *kb.OntologyTerm:
		return termAttr(rec, attr)
	case *kb.Feature:
		switch attr {
		case "biotype":
			return rec.Biotype, nil
		case "source.name":
			return rec.Source, nil
		}
		return termAttr(&rec.OntologyTerm, attr)
	case *kb.PositionalVariant:
		switch attr {
		case "reference1":
			return rec.Reference1.ID, nil
		case "reference2":
			return featureLinkID(rec.Reference2), nil
		case "type":
			return rec.Type.ID, nil
		case "zygosity":
			return rec.Zygosity, nil
		case "break1Start.@class":
			if rec.Break1Start == nil {
				return nil, nil
			}
			return rec.Break1Start.Class, nil
		}
	case *kb.CategoryVariant:
		switch attr {
		case "reference1":
			return rec.Reference1.ID, nil
		case "reference2":
			return featureLinkID(rec.Reference2), nil
		case "type":
			return rec.Type.ID, nil
		case "zygosity":
			return rec.Zygosity, nil
		}
	}
	return nil, fmt.Errorf("attribute %s is not comparable on %s records", attr, r.ClassName())
}

func termAttr(t *kb.OntologyTerm, attr string) (any, error) {
	switch attr {
	case "name":
		return t.Name, nil
	case "sourceId":
		return t.SourceID, nil
	case "sourceIdVersion":
		return t.SourceIDVersion, nil
	case "deprecated":
		return t.Deprecated, nil
	default:
		return nil, fmt.Errorf("attribute %s is not comparable on %s records", attr, t.Class)
	}
}

func featureLinkID(l *kb.FeatureLink) any {
	if l == nil {
		return nil
	}
	return l.ID
}
