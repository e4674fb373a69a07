package svn

import (
	"errors"
)

var (
	// ErrFormat covers malformed headers, length mismatches and premature
	// end of stream. Parsing cannot resume past a corrupt record.
	ErrFormat = errors.New("malformed dump stream")

	// ErrReference covers revision numbers that were never seen or that
	// point forward in the stream.
	ErrReference = errors.New("bad revision reference")

	// ErrAccessor covers failures to fetch content from a live repository.
	ErrAccessor = errors.New("repository access failed")
)
