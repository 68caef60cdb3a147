package kb

import (
	"encoding/json"
	"fmt"
)

// Edge classes used for similarity and inheritance traversal.
const (
	EdgeAliasOf          = "AliasOf"
	EdgeCrossReferenceOf = "CrossReferenceOf"
	EdgeDeprecatedBy     = "DeprecatedBy"
	EdgeGeneralizationOf = "GeneralizationOf"
	EdgeInfers           = "Infers"
	EdgeSubClassOf       = "SubClassOf"
)

// SimilarityEdges is the default set of edges connecting equivalent or
// near-equivalent records.
var SimilarityEdges = []string{
	EdgeAliasOf,
	EdgeCrossReferenceOf,
	EdgeDeprecatedBy,
	EdgeGeneralizationOf,
}

// Traversal selects the query traversal mode. The set is closed: invalid
// combinations are rejected when a query is built, not discovered remotely.
type Traversal int

const (
	// TraverseNone applies the filters with no graph traversal.
	TraverseNone Traversal = iota
	// TraverseSimilarTo expands the target set along similarity edges.
	TraverseSimilarTo
	// TraverseAncestors walks the tree edges toward broader records.
	TraverseAncestors
	// TraverseDescendants walks the tree edges toward narrower records.
	TraverseDescendants
)

// name returns the wire name of the traversal mode.
func (t Traversal) name() (string, error) {
	switch t {
	case TraverseNone:
		return "", nil
	case TraverseSimilarTo:
		return "similarTo", nil
	case TraverseAncestors:
		return "ancestors", nil
	case TraverseDescendants:
		return "descendants", nil
	default:
		return "", fmt.Errorf("unknown traversal mode (%d)", int(t))
	}
}

// Target names the starting point of a query: a record class, an explicit
// record id list, or the result of a nested query. Exactly one field must be
// set.
type Target struct {
	Class     string
	RecordIDs []string
	Subquery  *Query
}

// Query is a declarative filter description sent to the knowledge base.
type Query struct {
	Target  Target
	Filters Filter
	Kind    Traversal

	// Edges and TreeEdges name the relationship classes traversed by
	// TraverseSimilarTo. A nil Edges falls back to the store defaults; an
	// empty non-nil slice disables edge expansion.
	Edges     []string
	TreeEdges []string

	// Depth bounds tree traversal (ancestors/descendants); 0 means unbounded.
	Depth int

	// ReturnProperties limits the returned record fields. Empty returns the
	// store defaults.
	ReturnProperties []string
}

// Validate checks the target and traversal combination.
func (q *Query) Validate() error {
	set := 0
	if q.Target.Class != "" {
		set++
	}
	if q.Target.RecordIDs != nil {
		set++
	}
	if q.Target.Subquery != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("query target must set exactly one of class, record ids, or subquery (got %d)", set)
	}
	if q.Target.Subquery != nil {
		if err := q.Target.Subquery.Validate(); err != nil {
			return err
		}
	}
	if _, err := q.Kind.name(); err != nil {
		return err
	}
	if q.Kind != TraverseSimilarTo && (q.Edges != nil || q.TreeEdges != nil) {
		if q.Kind != TraverseAncestors && q.Kind != TraverseDescendants {
			return fmt.Errorf("edge lists require a traversal mode")
		}
	}
	return nil
}

// MarshalJSON renders the query in the knowledge base's request dialect.
func (q *Query) MarshalJSON() ([]byte, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	body := map[string]any{}

	switch {
	case q.Target.Class != "":
		body["target"] = q.Target.Class
	case q.Target.RecordIDs != nil:
		body["target"] = q.Target.RecordIDs
	default:
		body["target"] = q.Target.Subquery
	}

	if q.Filters != nil {
		body["filters"] = q.Filters
	}
	if name, _ := q.Kind.name(); name != "" {
		body["queryType"] = name
	}
	if q.Edges != nil {
		body["edges"] = q.Edges
	}
	if q.TreeEdges != nil {
		body["treeEdges"] = q.TreeEdges
	}
	if q.Depth > 0 {
		body["depth"] = q.Depth
	}
	if len(q.ReturnProperties) > 0 {
		body["returnProperties"] = q.ReturnProperties
	}
	return json.Marshal(body)
}

// Filter is a node in a tree of attribute comparisons.
type Filter interface {
	json.Marshaler
	isFilter()
}

// Cond compares a record attribute to a value. A nil Value matches records
// where the attribute is unset. In selects membership of the attribute in a
// list value.
type Cond struct {
	Attr  string
	Value any
	In    bool
}

func (Cond) isFilter() {}

// MarshalJSON renders the comparison in the request dialect.
func (c Cond) MarshalJSON() ([]byte, error) {
	body := map[string]any{c.Attr: c.Value}
	if c.In {
		body["operator"] = "IN"
	}
	return json.Marshal(body)
}

// And matches records satisfying every clause.
type And []Filter

func (And) isFilter() {}

// MarshalJSON renders the conjunction in the request dialect.
func (a And) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"AND": []Filter(a)})
}

// Or matches records satisfying at least one clause.
type Or []Filter

func (Or) isFilter() {}

// MarshalJSON renders the disjunction in the request dialect.
func (o Or) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"OR": []Filter(o)})
}
