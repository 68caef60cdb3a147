package match

import "github.com/variantkb/kbmatch/internal/kb"

// ScreenOptions configure structural-type screening. The zero value uses the
// baked-in structural vocabulary and default threshold.
type ScreenOptions struct {
	// StructuralTypes is the vocabulary of structural type names. Empty uses
	// DefaultStructuralTypes.
	StructuralTypes []string
	// Threshold is the minimum affected span in base pairs. Zero uses
	// DefaultStructuralThreshold.
	Threshold int
}

func (o ScreenOptions) structuralTypes() []string {
	if len(o.StructuralTypes) == 0 {
		return DefaultStructuralTypes
	}
	return o.StructuralTypes
}

func (o ScreenOptions) threshold() int {
	if o.Threshold == 0 {
		return DefaultStructuralThreshold
	}
	return o.Threshold
}

// IsStructural reports whether the parsed occurrence is large enough (or
// categorical enough) to keep its specific structural type. Short indels and
// duplications are not biologically structural rearrangements even though
// their vocabulary term suggests so.
func IsStructural(v *kb.ParsedVariant, opts ScreenOptions) bool {
	if !contains(opts.structuralTypes(), v.Type) {
		return false
	}

	// unambiguous structural categories, and anything spanning two features
	if v.Type == "fusion" || v.Type == "translocation" || v.Reference2 != "" {
		return true
	}

	profile := v.Profile()
	switch profile.Prefix() {
	case "y":
		// cytoband coordinates cannot express spans below the threshold
		return true
	case "e", "i":
		// exon/intron coordinates cannot be resolved to a size
		return false
	}

	threshold := opts.threshold()
	if v.UntemplatedSeqSize != nil && *v.UntemplatedSeqSize >= threshold {
		return true
	}

	if v.Break1Start == nil || v.Break1Start.Pos == nil {
		return false
	}
	start := *v.Break1Start.Pos
	end := start
	if v.Break2Start != nil && v.Break2Start.Pos != nil {
		end = *v.Break2Start.Pos
	}

	unit := 1
	if profile.Prefix() == "p" {
		unit = 3 // protein coordinates are codons
	}
	return (end-start+1)*unit >= threshold
}

// ScreenType returns the type name to match on: the parsed type when the
// occurrence passes the structural screen or is not structural vocabulary at
// all, otherwise the generic default type.
func ScreenType(v *kb.ParsedVariant, opts ScreenOptions) string {
	if !contains(opts.structuralTypes(), v.Type) {
		return v.Type
	}
	if IsStructural(v, opts) {
		return v.Type
	}
	return DefaultNonStructuralType
}
