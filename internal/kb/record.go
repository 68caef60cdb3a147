// Package kb defines the record model and collaborator interface for a
// GraphKB-style knowledge base.
package kb

import "regexp"

// Record classes returned by the knowledge base.
const (
	ClassVocabulary        = "Vocabulary"
	ClassFeature           = "Feature"
	ClassPositionalVariant = "PositionalVariant"
	ClassCategoryVariant   = "CategoryVariant"
)

// Record is the common identity of anything retrieved from the knowledge base.
type Record interface {
	// RID returns the record id (e.g. "#14:23").
	RID() string

	// ClassName returns the record class (e.g. "Feature").
	ClassName() string
}

// BaseRecord carries the identity fields shared by all record types.
type BaseRecord struct {
	ID    string `json:"@rid"`
	Class string `json:"@class"`
}

// RID returns the record id.
func (r BaseRecord) RID() string { return r.ID }

// ClassName returns the record class.
func (r BaseRecord) ClassName() string { return r.Class }

// OntologyTerm is a node in a generalization/specialization hierarchy of
// vocabulary or feature concepts.
type OntologyTerm struct {
	BaseRecord
	Name            string `json:"name"`
	SourceID        string `json:"sourceId"`
	SourceIDVersion string `json:"sourceIdVersion,omitempty"`
	DisplayName     string `json:"displayName,omitempty"`
	Deprecated      bool   `json:"deprecated"`
}

// Feature is a gene, transcript, or protein entity referenced by a variant.
type Feature struct {
	OntologyTerm
	Biotype string `json:"biotype,omitempty"`
	Source  string `json:"source,omitempty"`
}

// GenericRecord holds a record of a class this package does not model
// explicitly. Only the identity and display fields are retained.
type GenericRecord struct {
	BaseRecord
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

var ridPattern = regexp.MustCompile(`^#?-?\d+:-?\d+$`)

// IsRecordID reports whether s lexically looks like a record id rather than a
// feature or term name.
func IsRecordID(s string) bool {
	return ridPattern.MatchString(s)
}

// RIDs extracts the record ids from a list of records, preserving order.
func RIDs(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RID())
	}
	return ids
}

// ResultSet accumulates records deduplicated by record id. The last record
// added for a given id wins; insertion order of first occurrence is kept so
// results are deterministic.
type ResultSet struct {
	order []string
	byID  map[string]Record
}

// NewResultSet creates an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{byID: make(map[string]Record)}
}

// Add merges records into the set.
func (s *ResultSet) Add(records ...Record) {
	for _, r := range records {
		if _, ok := s.byID[r.RID()]; !ok {
			s.order = append(s.order, r.RID())
		}
		s.byID[r.RID()] = r
	}
}

// Len returns the number of distinct record ids in the set.
func (s *ResultSet) Len() int { return len(s.order) }

// Records returns the deduplicated records in first-insertion order.
func (s *ResultSet) Records() []Record {
	records := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.byID[id])
	}
	return records
}
