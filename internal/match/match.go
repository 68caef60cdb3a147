package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/variantkb/kbmatch/internal/feature"
	"github.com/variantkb/kbmatch/internal/kb"
	"github.com/variantkb/kbmatch/internal/vocab"
)

// variantReturnProperties are the fields fetched for variant records in the
// category queries.
var variantReturnProperties = []string{
	"@rid", "@class", "displayName", "reference1", "reference2", "type", "zygosity", "germline",
}

// Matcher resolves an HGVS-like variant notation to the stored variant
// records that are semantically equivalent to, or safe generalizations of,
// the input.
type Matcher struct {
	client kb.Client
	terms  *vocab.Resolver
	feats  *feature.Resolver
	logger *zap.Logger

	threshold              int
	structuralTypes        []string
	refreshStructuralTypes bool
	expandIndel            bool
}

// New creates a matcher with its own term and feature resolvers.
func New(client kb.Client) *Matcher {
	return &Matcher{
		client:          client,
		terms:           vocab.NewResolver(client),
		feats:           feature.NewResolver(client),
		logger:          zap.NewNop(),
		threshold:       DefaultStructuralThreshold,
		structuralTypes: DefaultStructuralTypes,
		expandIndel:     true,
	}
}

// SetLogger sets the logger on the matcher and its resolvers.
func (m *Matcher) SetLogger(l *zap.Logger) {
	m.logger = l
	m.terms.SetLogger(l)
	m.feats.SetLogger(l)
}

// SetStructuralThreshold overrides the structural size threshold.
func (m *Matcher) SetStructuralThreshold(threshold int) {
	m.threshold = threshold
}

// SetRefreshStructuralTypes refreshes the structural vocabulary from the
// store on each match instead of using the baked-in list.
func (m *Matcher) SetRefreshStructuralTypes(refresh bool) {
	m.refreshStructuralTypes = refresh
}

// SetIndelExpansion toggles the widening of indel inputs to the immediate
// child terms of deletion and insertion.
func (m *Matcher) SetIndelExpansion(expand bool) {
	m.expandIndel = expand
}

// Features returns the matcher's feature resolver, for cache priming.
func (m *Matcher) Features() *feature.Resolver { return m.feats }

// Terms returns the matcher's term resolver.
func (m *Matcher) Terms() *vocab.Resolver { return m.terms }

// Options adjust a positional match request.
type Options struct {
	// Reference1 and Reference2 override the notation-embedded references.
	// They are mutually exclusive with embedded references.
	Reference1 string
	Reference2 string
	// GeneIsSourceID matches the references by source identifier.
	GeneIsSourceID bool
	// GeneSource restricts reference lookup to the named source.
	GeneSource string
	// IgnoreCache bypasses the known-feature cache.
	IgnoreCache bool
}

func (o Options) featureOptions() feature.Options {
	return feature.Options{
		IsSourceID:  o.GeneIsSourceID,
		Source:      o.GeneSource,
		IgnoreCache: o.IgnoreCache,
	}
}

// MatchPositional resolves a variant notation against the store and returns
// the deduplicated set of equivalent variant records.
func (m *Matcher) MatchPositional(ctx context.Context, notation string, opts Options) ([]kb.Record, error) {
	requireFeatures := opts.Reference1 == "" && opts.Reference2 == ""
	parsed, err := m.client.Parse(ctx, notation, requireFeatures)
	if err != nil {
		return nil, fmt.Errorf("parse notation (%s): %w", notation, err)
	}
	if parsed.Uncertain() {
		return nil, &kb.UnsupportedPositionError{Notation: notation}
	}

	gene1, gene2, err := resolveReferences(parsed, opts)
	if err != nil {
		return nil, err
	}

	features, err := m.resolveFeatureSet(ctx, gene1, opts)
	if err != nil {
		return nil, err
	}

	var secondary []string
	if gene2 != "" {
		secondary, err = m.resolveFeatureSet(ctx, gene2, opts)
		if err != nil {
			return nil, err
		}
	}

	types, typeNames, screened, err := m.resolveTypes(ctx, parsed)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("resolved match scope",
		zap.String("notation", notation),
		zap.String("screenedType", screened),
		zap.Int("features", len(features)),
		zap.Int("secondaryFeatures", len(secondary)),
		zap.Int("types", len(types)))

	candidates, err := m.queryCandidates(ctx, parsed, features, secondary, types)
	if err != nil {
		return nil, err
	}

	generic, strict, err := filterCandidates(parsed, candidates, typeNames)
	if err != nil {
		return nil, err
	}

	results := kb.NewResultSet()
	if err := m.expandMatches(ctx, results, generic, strict); err != nil {
		return nil, err
	}
	if err := m.expandCategories(ctx, results, features, secondary, types); err != nil {
		return nil, err
	}
	return results.Records(), nil
}

// resolveReferences merges explicit reference overrides with the
// notation-embedded references, rejecting conflicts.
func resolveReferences(parsed *kb.ParsedVariant, opts Options) (string, string, error) {
	gene1, gene2 := parsed.Reference1, parsed.Reference2

	if opts.Reference1 != "" {
		if gene1 != "" {
			return "", "", &kb.ValidationError{
				Reason: fmt.Sprintf("explicit reference1 (%s) conflicts with notation-embedded reference (%s)",
					opts.Reference1, gene1),
			}
		}
		gene1 = opts.Reference1
	}
	if opts.Reference2 != "" {
		if gene2 != "" {
			return "", "", &kb.ValidationError{
				Reason: fmt.Sprintf("explicit reference2 (%s) conflicts with notation-embedded reference (%s)",
					opts.Reference2, gene2),
			}
		}
		gene2 = opts.Reference2
	}
	return gene1, gene2, nil
}

// resolveFeatureSet disambiguates one reference to its equivalence class of
// feature record ids.
func (m *Matcher) resolveFeatureSet(ctx context.Context, gene string, opts Options) ([]string, error) {
	features, err := m.feats.Equivalent(ctx, gene, opts.featureOptions())
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, &kb.FeatureNotFoundError{Name: gene}
	}
	ids := make([]string, 0, len(features))
	for _, f := range features {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// resolveTypes screens the parsed type and expands the screened type to its
// term tree, plus the indel widening when applicable. The returned map gives
// the name of every resolved term id, for candidates whose type link arrives
// unresolved.
func (m *Matcher) resolveTypes(ctx context.Context, parsed *kb.ParsedVariant) ([]string, map[string]string, string, error) {
	screenOpts := ScreenOptions{StructuralTypes: m.structuralTypes, Threshold: m.threshold}
	if m.refreshStructuralTypes {
		refreshed, err := m.loadStructuralTypes(ctx)
		if err != nil {
			return nil, nil, "", err
		}
		screenOpts.StructuralTypes = refreshed
	}
	screened := ScreenType(parsed, screenOpts)
	if screened != parsed.Type {
		m.logger.Debug("screened variant type to generic default",
			zap.String("type", parsed.Type), zap.String("screened", screened))
	}

	tree, err := m.terms.TermTree(ctx, screened, "")
	if err != nil {
		return nil, nil, "", err
	}
	if len(tree) == 0 {
		return nil, nil, "", &kb.TermNotFoundError{Name: screened}
	}

	set := kb.NewResultSet()
	for _, t := range tree {
		set.Add(t)
	}

	// an indel input can match more specific stored deletions and insertions
	if m.expandIndel && screened == "indel" {
		for _, base := range []string{"deletion", "insertion"} {
			children, err := m.terms.ChildTerms(ctx, base)
			if err != nil {
				return nil, nil, "", err
			}
			for _, t := range children {
				set.Add(t)
			}
		}
	}

	names := make(map[string]string, set.Len())
	for _, rec := range set.Records() {
		if t, ok := rec.(*kb.OntologyTerm); ok {
			names[t.ID] = t.Name
		}
	}
	return kb.RIDs(set.Records()), names, screened, nil
}

// loadStructuralTypes refreshes the structural vocabulary from the store: the
// names of every term under "structural variant".
func (m *Matcher) loadStructuralTypes(ctx context.Context) ([]string, error) {
	set, err := m.terms.TermSet(ctx, []string{"structural variant"})
	if err != nil {
		return nil, fmt.Errorf("refresh structural types: %w", err)
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	records, err := m.client.GetRecordsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("refresh structural types: %w", err)
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		if t, ok := rec.(*kb.OntologyTerm); ok {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

// queryCandidates fetches the stored positional variants sharing the resolved
// feature sets, type set, and break1 coordinate class. Mismatched coordinate
// systems are never compared directly; they are only reachable through
// inheritance edges during expansion.
func (m *Matcher) queryCandidates(ctx context.Context, parsed *kb.ParsedVariant, features, secondary, types []string) ([]*kb.PositionalVariant, error) {
	filters := kb.And{
		kb.Cond{Attr: "reference1", Value: features, In: true},
		secondaryFilter(secondary),
		kb.Cond{Attr: "type", Value: types, In: true},
	}
	if parsed.Break1Start != nil {
		filters = append(filters, kb.Cond{Attr: "break1Start.@class", Value: parsed.Break1Start.Class})
	}

	records, err := m.client.Query(ctx, &kb.Query{
		Target:  kb.Target{Class: kb.ClassPositionalVariant},
		Filters: filters,
	})
	if err != nil {
		return nil, fmt.Errorf("positional candidates: %w", err)
	}

	candidates := make([]*kb.PositionalVariant, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.(*kb.PositionalVariant); ok {
			candidates = append(candidates, v)
		}
	}
	return candidates, nil
}

func secondaryFilter(secondary []string) kb.Filter {
	if secondary == nil {
		return kb.Cond{Attr: "reference2", Value: nil}
	}
	return kb.Cond{Attr: "reference2", Value: secondary, In: true}
}

// filterCandidates splits candidates into the generic-and-specific set and
// its strict ("truly the same notation") subset.
func filterCandidates(parsed *kb.ParsedVariant, candidates []*kb.PositionalVariant, typeNames map[string]string) (generic, strict []kb.Record, err error) {
	profile := parsed.Profile()
	for _, candidate := range candidates {
		other := candidate.Profile()
		// stores may return the type as a bare link with no embedded record;
		// the candidate query constrained every type id to the resolved set
		if other.Type == "" {
			other.Type = typeNames[candidate.Type.ID]
		}

		ok, err := Equivalent(profile, other, false)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		generic = append(generic, candidate)

		ok, err = Equivalent(profile, other, true)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			strict = append(strict, candidate)
		}
	}
	return generic, strict, nil
}

// expandMatches grows the filtered candidate sets: strict matches expand
// along similarity and inheritance edges (surfacing equivalents from other
// coordinate systems), generic matches expand to all more-specific stored
// variants.
func (m *Matcher) expandMatches(ctx context.Context, results *kb.ResultSet, generic, strict []kb.Record) error {
	if len(strict) > 0 {
		records, err := m.client.Query(ctx, &kb.Query{
			Target:    kb.Target{RecordIDs: kb.RIDs(strict)},
			Kind:      kb.TraverseSimilarTo,
			Edges:     kb.SimilarityEdges,
			TreeEdges: []string{kb.EdgeInfers},
		})
		if err != nil {
			return fmt.Errorf("expand strict matches: %w", err)
		}
		results.Add(records...)
	}

	if len(generic) > 0 {
		records, err := m.client.Query(ctx, &kb.Query{
			Target:    kb.Target{RecordIDs: kb.RIDs(generic)},
			Kind:      kb.TraverseDescendants,
			TreeEdges: []string{kb.EdgeInfers},
		})
		if err != nil {
			return fmt.Errorf("expand generic matches: %w", err)
		}
		results.Add(records...)
	}
	return nil
}

// expandCategories adds the coarse-grained category variant matches: both
// reference orders, and each feature set alone, so a single-gene category
// (e.g. "BRAF fusion") can match a specific two-gene event.
func (m *Matcher) expandCategories(ctx context.Context, results *kb.ResultSet, features, secondary, types []string) error {
	if err := m.queryCategories(ctx, results, features, secondary, types); err != nil {
		return err
	}
	if secondary != nil {
		if err := m.queryCategories(ctx, results, secondary, features, types); err != nil {
			return err
		}
		if err := m.queryCategories(ctx, results, features, nil, types); err != nil {
			return err
		}
		if err := m.queryCategories(ctx, results, secondary, nil, types); err != nil {
			return err
		}
	}
	return nil
}

func (m *Matcher) queryCategories(ctx context.Context, results *kb.ResultSet, ref1, ref2, types []string) error {
	records, err := m.client.Query(ctx, &kb.Query{
		Target: kb.Target{Subquery: &kb.Query{
			Target: kb.Target{Class: kb.ClassCategoryVariant},
			Filters: kb.And{
				kb.Cond{Attr: "reference1", Value: ref1, In: true},
				secondaryFilter(ref2),
				kb.Cond{Attr: "type", Value: types, In: true},
			},
		}},
		Kind:             kb.TraverseSimilarTo,
		Edges:            kb.SimilarityEdges,
		TreeEdges:        []string{},
		ReturnProperties: variantReturnProperties,
	})
	if err != nil {
		return fmt.Errorf("category candidates: %w", err)
	}
	results.Add(records...)
	return nil
}
