// Package match implements the variant-matching engine: structural-type
// screening, positional comparison, and the multi-phase match pipeline.
package match

// DefaultNonStructuralType is the generic type used for occurrences that
// carry a structural vocabulary term but fall below the size threshold.
const DefaultNonStructuralType = "mutation"

// DefaultStructuralThreshold is the minimum affected span, in base pairs, for
// an occurrence to be treated as a true structural rearrangement.
const DefaultStructuralThreshold = 48

// DefaultStructuralTypes is the baked-in vocabulary of structural variant
// type names. The list can be refreshed from the store instead (see
// Matcher.SetRefreshStructuralTypes).
var DefaultStructuralTypes = []string{
	"structural variant",
	"deletion",
	"duplication",
	"fusion",
	"indel",
	"insertion",
	"inversion",
	"rearrangement",
	"translocation",
}

// Copy-number categories accepted by MatchCopy.
const (
	CopyAmplification = "amplification"
	CopyAnyGain       = "copy gain"
	CopyAnyLoss       = "copy loss"
	CopyDeepDeletion  = "deep deletion"
	CopyLowLevelGain  = "low level copy gain"
	CopyShallowLoss   = "shallow deletion"
)

// CopyCategories is the closed set of copy-number input categories.
var CopyCategories = []string{
	CopyAmplification,
	CopyAnyGain,
	CopyAnyLoss,
	CopyDeepDeletion,
	CopyLowLevelGain,
	CopyShallowLoss,
}

// Expression categories accepted by MatchExpression.
const (
	ExpressionIncreased = "increased expression"
	ExpressionReduced   = "reduced expression"
)

// ExpressionCategories is the closed set of expression input categories.
var ExpressionCategories = []string{ExpressionIncreased, ExpressionReduced}

// IsCopyCategory reports whether category is a copy-number input category.
func IsCopyCategory(category string) bool {
	return contains(CopyCategories, category)
}

// IsExpressionCategory reports whether category is an expression input
// category.
func IsExpressionCategory(category string) bool {
	return contains(ExpressionCategories, category)
}

// ambiguousSeq are the placeholder symbols standing in for an unspecified
// residue: only their length is comparable.
var ambiguousSeq = map[string]bool{"x": true, "X": true, "?": true}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
