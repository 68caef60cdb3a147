package kb

import "context"

// Client is the collaborator surface the matching engine requires from a
// knowledge base. Implementations own transport concerns (authentication,
// retries, pagination); the engine treats any returned error as an
// unrecoverable abort of the current request.
type Client interface {
	// Query runs a declarative query and returns the full (unpaginated)
	// result.
	Query(ctx context.Context, q *Query) ([]Record, error)

	// Parse decomposes an HGVS-like notation string. When requireFeatures is
	// set, notations without an embedded reference fail.
	Parse(ctx context.Context, notation string, requireFeatures bool) (*ParsedVariant, error)

	// GetRecordsByID fetches records by id, failing if any id does not
	// resolve.
	GetRecordsByID(ctx context.Context, ids []string) ([]Record, error)
}
