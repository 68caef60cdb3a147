package kb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryMarshal(t *testing.T) {
	tests := []struct {
		name  string
		query *Query
		want  string
	}{
		{
			name:  "class_target",
			query: &Query{Target: Target{Class: ClassFeature}},
			want:  `{"target":"Feature"}`,
		},
		{
			name: "record_id_target_with_traversal",
			query: &Query{
				Target:    Target{RecordIDs: []string{"#14:23", "#14:24"}},
				Kind:      TraverseSimilarTo,
				TreeEdges: []string{},
			},
			want: `{"target":["#14:23","#14:24"],"queryType":"similarTo","treeEdges":[]}`,
		},
		{
			name: "subquery_target",
			query: &Query{
				Target: Target{Subquery: &Query{
					Target:  Target{Class: ClassVocabulary},
					Filters: Cond{Attr: "name", Value: "fusion"},
				}},
				Kind:  TraverseSimilarTo,
				Edges: SimilarityEdges,
			},
			want: `{
				"target": {"target":"Vocabulary","filters":{"name":"fusion"}},
				"queryType": "similarTo",
				"edges": ["AliasOf","CrossReferenceOf","DeprecatedBy","GeneralizationOf"]
			}`,
		},
		{
			name: "descendants_with_depth",
			query: &Query{
				Target: Target{RecordIDs: []string{"#20:0"}},
				Kind:   TraverseDescendants,
				Depth:  1,
			},
			want: `{"target":["#20:0"],"queryType":"descendants","depth":1}`,
		},
		{
			name: "filters_and_return_properties",
			query: &Query{
				Target: Target{Class: ClassFeature},
				Filters: And{
					Cond{Attr: "source.name", Value: "ensembl"},
					Or{
						Cond{Attr: "sourceId", Value: "ENSG00000133703"},
						Cond{Attr: "name", Value: "KRAS"},
					},
				},
				ReturnProperties: []string{"@rid", "name"},
			},
			want: `{
				"target": "Feature",
				"filters": {"AND": [
					{"source.name": "ensembl"},
					{"OR": [{"sourceId": "ENSG00000133703"}, {"name": "KRAS"}]}
				]},
				"returnProperties": ["@rid", "name"]
			}`,
		},
		{
			name: "in_operator",
			query: &Query{
				Target:  Target{Class: ClassPositionalVariant},
				Filters: Cond{Attr: "reference1", Value: []string{"#10:0"}, In: true},
			},
			want: `{"target":"PositionalVariant","filters":{"reference1":["#10:0"],"operator":"IN"}}`,
		},
		{
			name: "nil_value_matches_unset",
			query: &Query{
				Target:  Target{Class: ClassPositionalVariant},
				Filters: Cond{Attr: "reference2", Value: nil},
			},
			want: `{"target":"PositionalVariant","filters":{"reference2":null}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.query)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestQueryValidate(t *testing.T) {
	t.Run("no_target", func(t *testing.T) {
		assert.Error(t, (&Query{}).Validate())
	})

	t.Run("two_targets", func(t *testing.T) {
		q := &Query{Target: Target{Class: ClassFeature, RecordIDs: []string{"#10:0"}}}
		assert.Error(t, q.Validate())
	})

	t.Run("invalid_subquery", func(t *testing.T) {
		q := &Query{Target: Target{Subquery: &Query{}}}
		assert.Error(t, q.Validate())
	})

	t.Run("unknown_traversal", func(t *testing.T) {
		q := &Query{Target: Target{Class: ClassFeature}, Kind: Traversal(99)}
		assert.Error(t, q.Validate())
	})

	t.Run("edges_without_traversal", func(t *testing.T) {
		q := &Query{Target: Target{Class: ClassFeature}, Edges: SimilarityEdges}
		assert.Error(t, q.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		q := &Query{
			Target: Target{RecordIDs: []string{"#10:0"}},
			Kind:   TraverseAncestors,
			Depth:  2,
		}
		assert.NoError(t, q.Validate())
	})
}
