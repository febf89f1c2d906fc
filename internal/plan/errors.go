package plan

import "github.com/pkg/errors"

var (
	// ErrMalformedPlan is returned when no plan node could be recovered from
	// the input.
	ErrMalformedPlan = errors.New("unable to parse plan")

	// ErrUnsupported is returned for recognized constructs the parser has no
	// handling for.
	ErrUnsupported = errors.New("unsupported plan construct")
)
