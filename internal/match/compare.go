package match

import (
	"strings"

	"github.com/variantkb/kbmatch/internal/kb"
)

// PositionsOverlap checks whether a position falls inside the uncertainty
// range of a candidate record. Nil positions and nil coordinates mean
// not-specified and overlap anything. With no range end, the start must be
// unspecified or exactly equal. Cytoband coordinates cannot be compared and
// fail with UnsupportedComparisonError.
func PositionsOverlap(pos, rangeStart, rangeEnd *kb.Position) (bool, error) {
	if pos.IsCytoband() || rangeStart.IsCytoband() || rangeEnd.IsCytoband() {
		return false, &kb.UnsupportedComparisonError{
			Reason: "position comparison for cytoband coordinates is not supported",
		}
	}
	if pos == nil || pos.Pos == nil {
		return true, nil
	}

	var start *int
	if rangeStart != nil {
		start = rangeStart.Pos
	}

	if rangeEnd != nil {
		if start != nil && *pos.Pos < *start {
			return false, nil
		}
		if rangeEnd.Pos != nil && *pos.Pos > *rangeEnd.Pos {
			return false, nil
		}
		return true, nil
	}
	return start == nil || *pos.Pos == *start, nil
}

// Equivalent decides whether two positional variants denote the same genomic
// event. In generic mode (strict=false) breakpoints must overlap and
// sequences must agree up to ambiguous-symbol semantics, which admits
// more-general/more-specific pairs. In strict mode the two must render to the
// same canonical notation (references and reference sequence excluded).
func Equivalent(a, b *kb.VariantProfile, strict bool) (bool, error) {
	if strict {
		return Canonical(a) == Canonical(b), nil
	}

	ok, err := PositionsOverlap(a.Break1Start, b.Break1Start, b.Break1End)
	if err != nil || !ok {
		return false, err
	}

	if (a.Break2Start == nil) != (b.Break2Start == nil) {
		return false, nil
	}
	if a.Break2Start != nil {
		ok, err := PositionsOverlap(a.Break2Start, b.Break2Start, b.Break2End)
		if err != nil || !ok {
			return false, err
		}
	}

	if a.UntemplatedSeq != nil && b.UntemplatedSeq != nil {
		if a.UntemplatedSeqSize != nil && b.UntemplatedSeqSize != nil &&
			*a.UntemplatedSeqSize != *b.UntemplatedSeqSize {
			return false, nil
		}
		if !seqsMatch(*a.UntemplatedSeq, *b.UntemplatedSeq) {
			return false, nil
		}
	}

	if a.RefSeq != nil && b.RefSeq != nil && !seqsMatch(*a.RefSeq, *b.RefSeq) {
		return false, nil
	}
	return true, nil
}

// seqsMatch compares sequences case-insensitively, except that an ambiguous
// symbol on either side reduces the comparison to length equality.
func seqsMatch(a, b string) bool {
	if ambiguousSeq[a] || ambiguousSeq[b] {
		return len(a) == len(b)
	}
	return strings.EqualFold(a, b)
}
