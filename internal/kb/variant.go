package kb

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TermLink is a link to an OntologyTerm that may arrive from the store as a
// bare record id or as an embedded record.
type TermLink struct {
	ID   string
	Term *OntologyTerm
}

// Name returns the linked term name, or "" when only the id is known.
func (l TermLink) Name() string {
	if l.Term == nil {
		return ""
	}
	return l.Term.Name
}

// UnmarshalJSON accepts either a record id string or an embedded record.
func (l *TermLink) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		return json.Unmarshal(data, &l.ID)
	}
	var term OntologyTerm
	if err := json.Unmarshal(data, &term); err != nil {
		return fmt.Errorf("decode term link: %w", err)
	}
	l.Term = &term
	l.ID = term.ID
	return nil
}

// MarshalJSON renders the link as its record id.
func (l TermLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.ID)
}

// FeatureLink is a link to a Feature that may arrive from the store as a bare
// record id or as an embedded record.
type FeatureLink struct {
	ID      string
	Feature *Feature
}

// Name returns the linked feature name, or "" when only the id is known.
func (l FeatureLink) Name() string {
	if l.Feature == nil {
		return ""
	}
	return l.Feature.Name
}

// UnmarshalJSON accepts either a record id string or an embedded record.
func (l *FeatureLink) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		return json.Unmarshal(data, &l.ID)
	}
	var feature Feature
	if err := json.Unmarshal(data, &feature); err != nil {
		return fmt.Errorf("decode feature link: %w", err)
	}
	l.Feature = &feature
	l.ID = feature.ID
	return nil
}

// MarshalJSON renders the link as its record id.
func (l FeatureLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.ID)
}

// VariantProfile is the positional/sequence view of a variant shared by
// parsed input and stored records. It is the unit the comparator operates on.
type VariantProfile struct {
	Type               string
	Break1Start        *Position
	Break1End          *Position
	Break2Start        *Position
	Break2End          *Position
	RefSeq             *string
	UntemplatedSeq     *string
	UntemplatedSeqSize *int
}

// Prefix returns the coordinate prefix derived from the first breakpoint, or
// "" when no breakpoint is present.
func (p *VariantProfile) Prefix() string {
	if p.Break1Start == nil {
		return ""
	}
	return PrefixForClass(p.Break1Start.Class)
}

// ParsedVariant is the structured decomposition of an input notation string,
// as returned by the collaborator's parse operation. References are unresolved
// names or ids.
type ParsedVariant struct {
	Reference1         string    `json:"reference1,omitempty"`
	Reference2         string    `json:"reference2,omitempty"`
	Type               string    `json:"type"`
	Break1Start        *Position `json:"break1Start,omitempty"`
	Break1End          *Position `json:"break1End,omitempty"`
	Break2Start        *Position `json:"break2Start,omitempty"`
	Break2End          *Position `json:"break2End,omitempty"`
	RefSeq             *string   `json:"refSeq,omitempty"`
	UntemplatedSeq     *string   `json:"untemplatedSeq,omitempty"`
	UntemplatedSeqSize *int      `json:"untemplatedSeqSize,omitempty"`
	Zygosity           string    `json:"zygosity,omitempty"`
	Germline           bool      `json:"germline,omitempty"`
}

// Profile returns the comparison view of the parsed variant.
func (v *ParsedVariant) Profile() *VariantProfile {
	return &VariantProfile{
		Type:               v.Type,
		Break1Start:        v.Break1Start,
		Break1End:          v.Break1End,
		Break2Start:        v.Break2Start,
		Break2End:          v.Break2End,
		RefSeq:             v.RefSeq,
		UntemplatedSeq:     v.UntemplatedSeq,
		UntemplatedSeqSize: v.UntemplatedSeqSize,
	}
}

// Uncertain reports whether the variant uses ranged (uncertain) breakpoints.
func (v *ParsedVariant) Uncertain() bool {
	return v.Break1End != nil || v.Break2End != nil
}

// PositionalVariant is a persisted variant record with explicit breakpoints.
// References and type are resolved records (or links to them).
type PositionalVariant struct {
	BaseRecord
	DisplayName        string       `json:"displayName,omitempty"`
	Reference1         FeatureLink  `json:"reference1"`
	Reference2         *FeatureLink `json:"reference2,omitempty"`
	Type               TermLink     `json:"type"`
	Break1Start        *Position    `json:"break1Start,omitempty"`
	Break1End          *Position    `json:"break1End,omitempty"`
	Break2Start        *Position    `json:"break2Start,omitempty"`
	Break2End          *Position    `json:"break2End,omitempty"`
	RefSeq             *string      `json:"refSeq,omitempty"`
	UntemplatedSeq     *string      `json:"untemplatedSeq,omitempty"`
	UntemplatedSeqSize *int         `json:"untemplatedSeqSize,omitempty"`
	Zygosity           string       `json:"zygosity,omitempty"`
	Germline           bool         `json:"germline,omitempty"`
}

// Profile returns the comparison view of the variant record.
func (v *PositionalVariant) Profile() *VariantProfile {
	return &VariantProfile{
		Type:               v.Type.Name(),
		Break1Start:        v.Break1Start,
		Break1End:          v.Break1End,
		Break2Start:        v.Break2Start,
		Break2End:          v.Break2End,
		RefSeq:             v.RefSeq,
		UntemplatedSeq:     v.UntemplatedSeq,
		UntemplatedSeqSize: v.UntemplatedSeqSize,
	}
}

// CategoryVariant is a persisted variant record defined only by its
// reference(s) and type, with no breakpoints.
type CategoryVariant struct {
	BaseRecord
	DisplayName string       `json:"displayName,omitempty"`
	Reference1  FeatureLink  `json:"reference1"`
	Reference2  *FeatureLink `json:"reference2,omitempty"`
	Type        TermLink     `json:"type"`
	Zygosity    string       `json:"zygosity,omitempty"`
	Germline    bool         `json:"germline,omitempty"`
}

// DecodeRecord decodes a raw record into its concrete type based on the
// @class discriminator. Unrecognized classes decode as GenericRecord.
func DecodeRecord(data []byte) (Record, error) {
	var base BaseRecord
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("decode record identity: %w", err)
	}

	switch base.Class {
	case ClassVocabulary:
		var term OntologyTerm
		if err := json.Unmarshal(data, &term); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", base.Class, base.ID, err)
		}
		return &term, nil
	case ClassFeature:
		var feature Feature
		if err := json.Unmarshal(data, &feature); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", base.Class, base.ID, err)
		}
		return &feature, nil
	case ClassPositionalVariant:
		var variant PositionalVariant
		if err := json.Unmarshal(data, &variant); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", base.Class, base.ID, err)
		}
		return &variant, nil
	case ClassCategoryVariant:
		var variant CategoryVariant
		if err := json.Unmarshal(data, &variant); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", base.Class, base.ID, err)
		}
		return &variant, nil
	default:
		var generic GenericRecord
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", base.Class, base.ID, err)
		}
		return &generic, nil
	}
}
