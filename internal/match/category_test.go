package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantkb/kbmatch/internal/kb"
	"github.com/variantkb/kbmatch/internal/kb/kbtest"
)

// categoryFixtures builds the copy-number and expression vocabularies around a
// single gene:
//
//	copy variant ⊃ {copy gain ⊃ amplification, copy loss ⊃ shallow deletion}
//	expression variant ⊃ {increased expression, reduced expression}
func categoryFixtures() *kbtest.Store {
	store := kbtest.New()

	kras := kbtest.Gene("#10:0", "KRAS")
	egfr := kbtest.Gene("#10:1", "EGFR")
	store.Add(kras, egfr)

	copyVariant := kbtest.Term("#20:0", "copy variant")
	copyGain := kbtest.Term("#20:1", "copy gain")
	amplification := kbtest.Term("#20:2", "amplification")
	copyLoss := kbtest.Term("#20:3", "copy loss")
	shallowLoss := kbtest.Term("#20:4", "shallow deletion")
	expression := kbtest.Term("#20:5", "expression variant")
	increased := kbtest.Term("#20:6", "increased expression")
	reduced := kbtest.Term("#20:7", "reduced expression")
	store.Add(copyVariant, copyGain, amplification, copyLoss, shallowLoss, expression, increased, reduced)
	store.AddEdge(kb.EdgeSubClassOf, copyGain.ID, copyVariant.ID)
	store.AddEdge(kb.EdgeSubClassOf, amplification.ID, copyGain.ID)
	store.AddEdge(kb.EdgeSubClassOf, copyLoss.ID, copyVariant.ID)
	store.AddEdge(kb.EdgeSubClassOf, shallowLoss.ID, copyLoss.ID)
	store.AddEdge(kb.EdgeSubClassOf, increased.ID, expression.ID)
	store.AddEdge(kb.EdgeSubClassOf, reduced.ID, expression.ID)

	store.Add(
		&kb.CategoryVariant{
			BaseRecord:  kb.BaseRecord{ID: "#31:0", Class: kb.ClassCategoryVariant},
			DisplayName: "KRAS amplification",
			Reference1:  kbtest.Link(kras),
			Type:        kbtest.TypeLink(amplification),
		},
		&kb.CategoryVariant{
			BaseRecord:  kb.BaseRecord{ID: "#31:1", Class: kb.ClassCategoryVariant},
			DisplayName: "KRAS copy loss",
			Reference1:  kbtest.Link(kras),
			Type:        kbtest.TypeLink(copyLoss),
		},
		&kb.CategoryVariant{
			BaseRecord:  kb.BaseRecord{ID: "#31:2", Class: kb.ClassCategoryVariant},
			DisplayName: "KRAS copy loss (homozygous)",
			Reference1:  kbtest.Link(kras),
			Type:        kbtest.TypeLink(shallowLoss),
			Zygosity:    "homozygous",
		},
		&kb.CategoryVariant{
			BaseRecord:  kb.BaseRecord{ID: "#31:3", Class: kb.ClassCategoryVariant},
			DisplayName: "KRAS increased expression",
			Reference1:  kbtest.Link(kras),
			Type:        kbtest.TypeLink(increased),
		},
		&kb.CategoryVariant{
			BaseRecord:  kb.BaseRecord{ID: "#31:4", Class: kb.ClassCategoryVariant},
			DisplayName: "EGFR amplification",
			Reference1:  kbtest.Link(egfr),
			Type:        kbtest.TypeLink(amplification),
		},
	)
	return store
}

func TestMatchCategory(t *testing.T) {
	matcher := New(categoryFixtures())
	ctx := context.Background()

	t.Run("tree_expansion", func(t *testing.T) {
		// copy gain expands to its equivalents and specializations, so the
		// stored amplification record qualifies
		records, err := matcher.MatchCategory(ctx, "KRAS", "copy gain")
		require.NoError(t, err)
		ids := resultIDs(records)
		assert.Contains(t, ids, "#31:0")
		assert.NotContains(t, ids, "#31:1", "copy loss is a sibling, not a specialization")
		assert.NotContains(t, ids, "#31:4", "other genes never match")
	})

	t.Run("gene_scoped", func(t *testing.T) {
		records, err := matcher.MatchCategory(ctx, "EGFR", "amplification")
		require.NoError(t, err)
		assert.Equal(t, []string{"#31:4"}, resultIDs(records))
	})

	t.Run("unknown_gene", func(t *testing.T) {
		_, err := matcher.MatchCategory(ctx, "NOPE", "copy gain")
		var notFound *kb.FeatureNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("unknown_category", func(t *testing.T) {
		_, err := matcher.MatchCategory(ctx, "KRAS", "no such term")
		var notFound *kb.TermNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestMatchCopy(t *testing.T) {
	matcher := New(categoryFixtures())
	ctx := context.Background()

	t.Run("rejects_unlisted_category", func(t *testing.T) {
		_, err := matcher.MatchCopy(ctx, "KRAS", "substitution", false)
		var validation *kb.ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("matches_specializations", func(t *testing.T) {
		records, err := matcher.MatchCopy(ctx, "KRAS", CopyAnyLoss, false)
		require.NoError(t, err)
		ids := resultIDs(records)
		assert.Contains(t, ids, "#31:1")
		assert.Contains(t, ids, "#31:2")
	})

	t.Run("drop_homozygous", func(t *testing.T) {
		records, err := matcher.MatchCopy(ctx, "KRAS", CopyAnyLoss, true)
		require.NoError(t, err)
		ids := resultIDs(records)
		assert.Contains(t, ids, "#31:1")
		assert.NotContains(t, ids, "#31:2")
	})
}

func TestMatchExpression(t *testing.T) {
	matcher := New(categoryFixtures())
	ctx := context.Background()

	t.Run("rejects_unlisted_category", func(t *testing.T) {
		_, err := matcher.MatchExpression(ctx, "KRAS", "expression variant")
		var validation *kb.ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("matches", func(t *testing.T) {
		records, err := matcher.MatchExpression(ctx, "KRAS", ExpressionIncreased)
		require.NoError(t, err)
		assert.Equal(t, []string{"#31:3"}, resultIDs(records))
	})
}
