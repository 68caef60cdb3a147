package match

import (
	"context"
	"fmt"

	"github.com/variantkb/kbmatch/internal/kb"
)

// MatchCategory returns the stored category variants matching a gene and a
// variant category term (e.g. "copy loss"), expanded along similarity edges.
func (m *Matcher) MatchCategory(ctx context.Context, gene, category string) ([]kb.Record, error) {
	features, err := m.resolveFeatureSet(ctx, gene, Options{})
	if err != nil {
		return nil, err
	}

	tree, err := m.terms.TermTree(ctx, category, "")
	if err != nil {
		return nil, err
	}
	if len(tree) == 0 {
		return nil, &kb.TermNotFoundError{Name: category}
	}
	types := make([]string, 0, len(tree))
	for _, t := range tree {
		types = append(types, t.ID)
	}

	records, err := m.client.Query(ctx, &kb.Query{
		Target: kb.Target{Subquery: &kb.Query{
			Target: kb.Target{Class: kb.ClassCategoryVariant},
			Filters: kb.And{
				kb.Cond{Attr: "reference1", Value: features, In: true},
				kb.Cond{Attr: "type", Value: types, In: true},
			},
		}},
		Kind:             kb.TraverseSimilarTo,
		TreeEdges:        []string{},
		ReturnProperties: variantReturnProperties,
	})
	if err != nil {
		return nil, fmt.Errorf("category variants (%s %s): %w", gene, category, err)
	}

	set := kb.NewResultSet()
	set.Add(records...)
	return set.Records(), nil
}

// MatchCopy matches a copy-number category. The category must be one of
// CopyCategories; dropHomozygous removes homozygous records from the result.
func (m *Matcher) MatchCopy(ctx context.Context, gene, category string, dropHomozygous bool) ([]kb.Record, error) {
	if !IsCopyCategory(category) {
		return nil, &kb.ValidationError{
			Reason: fmt.Sprintf("not a valid copy variant input category (%s)", category),
		}
	}

	records, err := m.MatchCategory(ctx, gene, category)
	if err != nil {
		return nil, err
	}
	if dropHomozygous {
		records = DropHomozygous(records)
	}
	return records, nil
}

// MatchExpression matches an expression category. The category must be one
// of ExpressionCategories.
func (m *Matcher) MatchExpression(ctx context.Context, gene, category string) ([]kb.Record, error) {
	if !IsExpressionCategory(category) {
		return nil, &kb.ValidationError{
			Reason: fmt.Sprintf("not a valid expression variant input category (%s)", category),
		}
	}
	return m.MatchCategory(ctx, gene, category)
}

// DropHomozygous removes homozygous category records from a match result.
func DropHomozygous(records []kb.Record) []kb.Record {
	kept := records[:0:0]
	for _, rec := range records {
		if v, ok := rec.(*kb.CategoryVariant); ok && v.Zygosity == "homozygous" {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
