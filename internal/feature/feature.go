// Package feature resolves gene/feature names, source identifiers, and record
// ids to their equivalence classes of feature records.
package feature

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/variantkb/kbmatch/internal/kb"
)

// featureReturnProperties are the fields fetched for feature records.
var featureReturnProperties = []string{
	"@rid", "@class", "name", "sourceId", "sourceIdVersion", "source.name", "displayName", "biotype", "deprecated",
}

// Options adjust a single equivalence lookup.
type Options struct {
	// IsSourceID matches by source-specific identifier instead of name.
	IsSourceID bool
	// Source restricts matches to features from the named source.
	Source string
	// SourceIDVersion requires the stored record to carry this version or no
	// version. Setting it implies source-id matching.
	SourceIDVersion string
	// IgnoreCache bypasses the known-feature cache for this lookup.
	IgnoreCache bool
}

// Resolver computes feature equivalence classes. The optional known-feature
// cache short-circuits lookups for names known not to exist; it must be
// primed explicitly before it is consulted.
type Resolver struct {
	client kb.Client
	logger *zap.Logger

	mu    sync.RWMutex
	known map[string]bool // lower-cased names and source ids; nil until primed
}

// NewResolver creates a feature resolver.
func NewResolver(client kb.Client) *Resolver {
	return &Resolver{client: client, logger: zap.NewNop()}
}

// SetLogger sets the logger for trace messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// PrimeCache loads every stored feature name and source id into the
// known-feature cache. Until this is called the cache is not consulted.
func (r *Resolver) PrimeCache(ctx context.Context) error {
	records, err := r.client.Query(ctx, &kb.Query{
		Target:           kb.Target{Class: kb.ClassFeature},
		ReturnProperties: []string{"name", "sourceId"},
	})
	if err != nil {
		return fmt.Errorf("prime feature cache: %w", err)
	}

	known := make(map[string]bool, 2*len(records))
	for _, rec := range records {
		f, ok := rec.(*kb.Feature)
		if !ok {
			continue
		}
		if f.Name != "" {
			known[strings.ToLower(f.Name)] = true
		}
		if f.SourceID != "" {
			known[strings.ToLower(f.SourceID)] = true
		}
	}

	r.mu.Lock()
	r.known = known
	r.mu.Unlock()
	r.logger.Debug("primed feature cache", zap.Int("names", len(known)))
	return nil
}

// InvalidateCache drops the known-feature cache; it is not consulted again
// until re-primed.
func (r *Resolver) InvalidateCache() {
	r.mu.Lock()
	r.known = nil
	r.mu.Unlock()
}

// knownMissing reports whether the primed cache proves the name does not
// exist in the store.
func (r *Resolver) knownMissing(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.known != nil && !r.known[strings.ToLower(name)]
}

// Equivalent returns the equivalence class of feature records for a name,
// source identifier, or record id: the direct matches expanded along alias,
// cross-reference, and deprecation edges. An empty result is not an error;
// callers decide whether empty means failure.
func (r *Resolver) Equivalent(ctx context.Context, name string, opts Options) ([]*kb.Feature, error) {
	// record ids bypass name matching entirely
	if kb.IsRecordID(name) {
		records, err := r.client.Query(ctx, &kb.Query{
			Target:           kb.Target{RecordIDs: []string{name}},
			Kind:             kb.TraverseSimilarTo,
			TreeEdges:        []string{},
			ReturnProperties: featureReturnProperties,
		})
		if err != nil {
			return nil, fmt.Errorf("feature lookup by id (%s): %w", name, err)
		}
		return asFeatures(records), nil
	}

	// a single purely-numeric dot suffix is a version marker
	if dot := strings.Index(name, "."); dot >= 0 && dot == strings.LastIndex(name, ".") && isDigits(name[dot+1:]) {
		r.logger.Debug("stripping version suffix from feature name",
			zap.String("name", name), zap.String("stripped", name[:dot]))
		name = name[:dot]
	}

	if !opts.IgnoreCache && r.knownMissing(name) {
		return nil, nil
	}

	var filters kb.And
	if opts.Source != "" {
		filters = append(filters, kb.Cond{Attr: "source.name", Value: opts.Source})
	}
	if opts.IsSourceID || opts.SourceIDVersion != "" {
		filters = append(filters, kb.Cond{Attr: "sourceId", Value: name})
		if opts.SourceIDVersion != "" {
			filters = append(filters, kb.Or{
				kb.Cond{Attr: "sourceIdVersion", Value: opts.SourceIDVersion},
				kb.Cond{Attr: "sourceIdVersion", Value: nil},
			})
		}
	} else {
		filters = append(filters, kb.Or{
			kb.Cond{Attr: "sourceId", Value: name},
			kb.Cond{Attr: "name", Value: name},
		})
	}

	records, err := r.client.Query(ctx, &kb.Query{
		Target: kb.Target{Subquery: &kb.Query{
			Target:  kb.Target{Class: kb.ClassFeature},
			Filters: filters,
		}},
		Kind:             kb.TraverseSimilarTo,
		TreeEdges:        []string{},
		ReturnProperties: featureReturnProperties,
	})
	if err != nil {
		return nil, fmt.Errorf("feature lookup (%s): %w", name, err)
	}
	return asFeatures(records), nil
}

func asFeatures(records []kb.Record) []*kb.Feature {
	features := make([]*kb.Feature, 0, len(records))
	for _, rec := range records {
		if f, ok := rec.(*kb.Feature); ok {
			features = append(features, f)
		}
	}
	return features
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
