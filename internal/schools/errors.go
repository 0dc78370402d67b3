package schools

import "errors"

var (
	// ErrNoStructuredData is returned when the output holds neither a JSON
	// array nor a usable pipe table.
	ErrNoStructuredData = errors.New("could not parse structured data from results")

	// ErrInvalidJSON is returned when the fenced JSON array cannot be decoded.
	// The pipe table fallback is not tried in that case.
	ErrInvalidJSON = errors.New("could not parse JSON data")

	// ErrRaggedTable is returned when a pipe table row has more cells than its header.
	ErrRaggedTable = errors.New("table row has more cells than the header")
)
