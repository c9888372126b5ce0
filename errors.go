package tsne

import "errors"

var (
	// ErrUnsupported is returned when the requested configuration needs a
	// capability the engine does not have, for example a Barnes-Hut run with
	// an output dimensionality other than 2.
	ErrUnsupported = errors.New("tsne: unsupported configuration")

	// ErrCanceled is returned when the context is already done before any
	// work starts. The context's own error is wrapped alongside it.
	ErrCanceled = errors.New("tsne: canceled")

	// ErrDimensionMismatch is returned when input rows do not all have the
	// same number of features, or a caller-provided buffer has the wrong size.
	ErrDimensionMismatch = errors.New("tsne: dimension mismatch")
)
