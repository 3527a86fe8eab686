// Package errs defines the sentinel error kinds the engine raises.
//
// Modeled on the teacher's store/types.Errors: plain sentinel values wrapped
// with fmt.Errorf at the call site, checkable with errors.Is.
package errs

import "errors"

var (
	// ErrSchemaMismatch means a document's field value disagrees with the
	// schema's declared type for that field.
	ErrSchemaMismatch = errors.New("litsearch: schema mismatch")

	// ErrUnknownField means a filter/sort/facet/highlight request named a
	// field the schema doesn't declare.
	ErrUnknownField = errors.New("litsearch: unknown field")

	// ErrIndexFormatIncompatible means the on-disk format major version
	// doesn't match what this build understands.
	ErrIndexFormatIncompatible = errors.New("litsearch: incompatible index format version")

	// ErrIoFailureTransient means a persistence operation failed in a way
	// the caller may retry (e.g. a transient read error on a still-healthy
	// file).
	ErrIoFailureTransient = errors.New("litsearch: transient I/O failure")

	// ErrIoFailureFatal means a persistence operation failed in a way that
	// requires the index to be closed.
	ErrIoFailureFatal = errors.New("litsearch: fatal I/O failure")

	// ErrCorruptContainer means a posting-list container kind byte was out
	// of range, or its length didn't match its header.
	ErrCorruptContainer = errors.New("litsearch: corrupt posting container")

	// ErrFacetCardinalityExceeded means a string facet field accumulated
	// more distinct values than its dictionary width allows.
	ErrFacetCardinalityExceeded = errors.New("litsearch: facet cardinality exceeded")

	// ErrQueryTooLarge means a query produced more than 100 terms after
	// rewriting; excess terms are dropped and this is surfaced as a
	// warning, not necessarily a hard failure.
	ErrQueryTooLarge = errors.New("litsearch: query has too many terms")

	// ErrDocIDInvalid means the referenced document is not present, or is
	// tombstoned, in the shard.
	ErrDocIDInvalid = errors.New("litsearch: document id invalid or deleted")

	// ErrFacetFilterFieldNotFound is non-fatal: queries that reference it
	// should degrade to an empty result for that filter, not abort.
	ErrFacetFilterFieldNotFound = errors.New("litsearch: facet filter field not found")

	// ErrIndexClosed is returned by operations attempted after Close.
	ErrIndexClosed = errors.New("litsearch: index is closed")
)
