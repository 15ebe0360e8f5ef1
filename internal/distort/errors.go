package distort

import "errors"

var (
	// ErrNoControlPoints is returned before the warp tool runs when there is nothing to warp with.
	ErrNoControlPoints = errors.New("no control points")
	// ErrWarpFailed covers non-zero exits and missing or empty output files.
	ErrWarpFailed = errors.New("warp failed")

	ErrUnknownSource = errors.New("unknown control point source")
)
