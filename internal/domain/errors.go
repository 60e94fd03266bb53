package domain

import "errors"

var (
	// ErrUnsupportedVersion reports an unrecognized summary API version tag.
	ErrUnsupportedVersion = errors.New("unsupported portfolio summary version")

	// ErrMissingPrecondition reports a required snapshot field found absent
	// after a successful fetch phase.
	ErrMissingPrecondition = errors.New("missing snapshot precondition")

	// ErrAmbiguousClassification reports a transaction that cannot be placed
	// into exactly one ledger bucket. Data is never silently dropped.
	ErrAmbiguousClassification = errors.New("ambiguous transaction classification")
)
