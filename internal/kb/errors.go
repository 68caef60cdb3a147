package kb

import "fmt"

// FeatureNotFoundError indicates a gene/feature name resolved to zero
// equivalent records. It always aborts the match that required the feature.
type FeatureNotFoundError struct {
	Name string
}

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("unable to find the feature (%s) or any equivalent representations", e.Name)
}

// TermNotFoundError indicates a vocabulary term name resolved to zero records.
type TermNotFoundError struct {
	Name string
}

func (e *TermNotFoundError) Error() string {
	return fmt.Sprintf("unable to find the term (%s) or any equivalent", e.Name)
}

// AmbiguousTermError indicates a vocabulary term name resolved to more than
// one record when exactly one was required.
type AmbiguousTermError struct {
	Name  string
	Count int
}

func (e *AmbiguousTermError) Error() string {
	return fmt.Sprintf("term name (%s) is ambiguous: matched %d records", e.Name, e.Count)
}

// ValidationError indicates conflicting or unrecognized input, such as an
// explicit reference override clashing with a notation-embedded reference.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// UnsupportedPositionError indicates the input used ranged (uncertain)
// breakpoints, which the matcher does not support.
type UnsupportedPositionError struct {
	Notation string
}

func (e *UnsupportedPositionError) Error() string {
	return fmt.Sprintf("matching does not support uncertain positions (%s) as input", e.Notation)
}

// UnsupportedComparisonError indicates a position comparison that cannot be
// computed, such as between cytoband coordinates.
type UnsupportedComparisonError struct {
	Reason string
}

func (e *UnsupportedComparisonError) Error() string { return e.Reason }

// RecordNotFoundError indicates that one or more requested record ids did not
// resolve.
type RecordNotFoundError struct {
	Requested int
	Fetched   int
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("the number of ids given (%d) does not match the number of records fetched (%d)",
		e.Requested, e.Fetched)
}
