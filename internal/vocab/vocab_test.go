package vocab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantkb/kbmatch/internal/kb"
	"github.com/variantkb/kbmatch/internal/kb/kbtest"
)

// countingClient counts queries so tests can observe memoization.
type countingClient struct {
	kb.Client
	queries int
}

func (c *countingClient) Query(ctx context.Context, q *kb.Query) ([]kb.Record, error) {
	c.queries++
	return c.Client.Query(ctx, q)
}

// copyVocabulary builds the hierarchy:
//
//	copy variant ⊃ {copy gain ⊃ amplification, copy loss ⊃ shallow deletion}
//	mutation     ⊃ {substitution, deletion}
//	duplication SubClassOf {structural variant, mutation}
func copyVocabulary() *kbtest.Store {
	store := kbtest.New()
	store.Add(
		kbtest.Term("#20:0", "copy variant"),
		kbtest.Term("#20:1", "copy gain"),
		kbtest.Term("#20:2", "amplification"),
		kbtest.Term("#20:3", "copy loss"),
		kbtest.Term("#20:4", "shallow deletion"),
		kbtest.Term("#20:5", "mutation"),
		kbtest.Term("#20:6", "substitution"),
		kbtest.Term("#20:7", "deletion"),
		kbtest.Term("#20:8", "structural variant"),
		kbtest.Term("#20:9", "duplication"),
	)
	store.AddEdge(kb.EdgeSubClassOf, "#20:1", "#20:0")
	store.AddEdge(kb.EdgeSubClassOf, "#20:2", "#20:1")
	store.AddEdge(kb.EdgeSubClassOf, "#20:3", "#20:0")
	store.AddEdge(kb.EdgeSubClassOf, "#20:4", "#20:3")
	store.AddEdge(kb.EdgeSubClassOf, "#20:6", "#20:5")
	store.AddEdge(kb.EdgeSubClassOf, "#20:7", "#20:5")
	store.AddEdge(kb.EdgeSubClassOf, "#20:9", "#20:8")
	store.AddEdge(kb.EdgeSubClassOf, "#20:9", "#20:5")
	return store
}

func termNames(terms []*kb.OntologyTerm) []string {
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name)
	}
	return names
}

func TestEquivalentTerms(t *testing.T) {
	resolver := NewResolver(copyVocabulary())
	ctx := context.Background()

	t.Run("excludes_specializations", func(t *testing.T) {
		terms, err := resolver.EquivalentTerms(ctx, "copy gain", "")
		require.NoError(t, err)
		names := termNames(terms)
		assert.Contains(t, names, "copy gain")
		assert.Contains(t, names, "copy variant")
		assert.NotContains(t, names, "amplification")
	})

	t.Run("includes_generalizations", func(t *testing.T) {
		terms, err := resolver.EquivalentTerms(ctx, "amplification", "")
		require.NoError(t, err)
		names := termNames(terms)
		assert.Contains(t, names, "amplification")
		assert.Contains(t, names, "copy gain")
		assert.Contains(t, names, "copy variant")
	})

	t.Run("exclude_subtree", func(t *testing.T) {
		terms, err := resolver.EquivalentTerms(ctx, "duplication", "structural variant")
		require.NoError(t, err)
		names := termNames(terms)
		assert.Contains(t, names, "mutation")
		assert.NotContains(t, names, "structural variant")
		// duplication itself sits under the excluded subtree
		assert.NotContains(t, names, "duplication")
	})
}

func TestTermTree(t *testing.T) {
	resolver := NewResolver(copyVocabulary())
	ctx := context.Background()

	t.Run("both_directions", func(t *testing.T) {
		terms, err := resolver.TermTree(ctx, "copy gain", "")
		require.NoError(t, err)
		names := termNames(terms)
		assert.Contains(t, names, "copy gain")
		assert.Contains(t, names, "copy variant")
		assert.Contains(t, names, "amplification")
	})

	t.Run("no_siblings", func(t *testing.T) {
		// substitution and deletion share the mutation parent; neither may
		// leak into the other's tree
		terms, err := resolver.TermTree(ctx, "substitution", "")
		require.NoError(t, err)
		names := termNames(terms)
		assert.Contains(t, names, "substitution")
		assert.Contains(t, names, "mutation")
		assert.NotContains(t, names, "deletion")
	})

	t.Run("unknown_term_is_empty", func(t *testing.T) {
		terms, err := resolver.TermTree(ctx, "no such term", "")
		require.NoError(t, err)
		assert.Empty(t, terms)
	})
}

func TestChildTerms(t *testing.T) {
	resolver := NewResolver(copyVocabulary())

	children, err := resolver.ChildTerms(context.Background(), "copy variant")
	require.NoError(t, err)
	names := termNames(children)
	assert.ElementsMatch(t, []string{"copy gain", "copy loss"}, names)
}

func TestTermByName(t *testing.T) {
	store := copyVocabulary()
	resolver := NewResolver(store)
	ctx := context.Background()

	t.Run("single_match", func(t *testing.T) {
		term, err := resolver.TermByName(ctx, "copy gain")
		require.NoError(t, err)
		assert.Equal(t, "#20:1", term.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := resolver.TermByName(ctx, "no such term")
		var notFound *kb.TermNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "no such term", notFound.Name)
	})

	t.Run("ambiguous", func(t *testing.T) {
		store.Add(kbtest.Term("#20:99", "copy gain"))
		_, err := resolver.TermByName(ctx, "copy gain")
		var ambiguous *kb.AmbiguousTermError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, 2, ambiguous.Count)
	})
}

func TestTermSet(t *testing.T) {
	client := &countingClient{Client: copyVocabulary()}
	resolver := NewResolver(client)
	ctx := context.Background()

	set, err := resolver.TermSet(ctx, []string{"copy gain"})
	require.NoError(t, err)
	assert.True(t, set["#20:1"])
	assert.True(t, set["#20:2"])
	// descendant-only: no ancestor expansion
	assert.False(t, set["#20:0"])

	t.Run("memoized", func(t *testing.T) {
		before := client.queries
		again, err := resolver.TermSet(ctx, []string{"copy gain"})
		require.NoError(t, err)
		assert.Equal(t, set, again)
		assert.Equal(t, before, client.queries)
	})

	t.Run("key_is_order_insensitive", func(t *testing.T) {
		first, err := resolver.TermSet(ctx, []string{"copy gain", "copy loss"})
		require.NoError(t, err)

		before := client.queries
		second, err := resolver.TermSet(ctx, []string{"copy loss", "copy gain"})
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, before, client.queries)
	})

	t.Run("invalidate", func(t *testing.T) {
		resolver.InvalidateCache()
		before := client.queries
		_, err := resolver.TermSet(ctx, []string{"copy gain"})
		require.NoError(t, err)
		assert.Greater(t, client.queries, before)
	})
}
