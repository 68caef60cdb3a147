package kbtest

import "github.com/variantkb/kbmatch/internal/kb"

// Term builds a vocabulary term record.
func Term(id, name string) *kb.OntologyTerm {
	return &kb.OntologyTerm{
		BaseRecord: kb.BaseRecord{ID: id, Class: kb.ClassVocabulary},
		Name:       name,
		SourceID:   name,
	}
}

// Gene builds a feature record with the gene biotype.
func Gene(id, name string) *kb.Feature {
	return &kb.Feature{
		OntologyTerm: kb.OntologyTerm{
			BaseRecord: kb.BaseRecord{ID: id, Class: kb.ClassFeature},
			Name:       name,
			SourceID:   name,
		},
		Biotype: "gene",
	}
}

// Link builds a resolved feature link.
func Link(f *kb.Feature) kb.FeatureLink {
	return kb.FeatureLink{ID: f.ID, Feature: f}
}

// TypeLink builds a resolved term link.
func TypeLink(t *kb.OntologyTerm) kb.TermLink {
	return kb.TermLink{ID: t.ID, Term: t}
}

// Seq returns a pointer to a sequence string, for optional sequence fields.
func Seq(s string) *string { return &s }

// Size returns a pointer to a sequence size.
func Size(n int) *int { return &n }
