package club

import "errors"

// Request-level validation errors shared by the proximity query and the
// ranking pipeline. Both surface to the caller as client errors.
var (
	// ErrInvalidCoordinate marks a search center outside valid WGS84 range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidRadius marks a non-positive or out-of-bounds search radius.
	ErrInvalidRadius = errors.New("invalid radius")
)
