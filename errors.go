package rig

import (
	"github.com/pkg/errors"
)

// Errors returned when constructing rig components. They indicate a
// mis-wired rig and are returned immediately; callers should compare
// with errors.Is, as returned errors carry additional context.
//
// Problems that only arise while evaluating a frame, such as a curve
// collapsing to zero length, are never reported as errors. They are
// recovered from locally so that no NaNs propagate through the rig.
var (
	ErrInsufficientControlPoints    = errors.New("insufficient control points")
	ErrInvalidDegree                = errors.New("invalid curve degree")
	ErrInvalidResolution            = errors.New("invalid resolution")
	ErrInvalidOutputCount           = errors.New("invalid output count")
	ErrNonMonotonicParameterization = errors.New("non-monotonic parameterization")
	ErrMismatchedParameterization   = errors.New("curves have mismatched parameterization")
	ErrAuthorityHeld                = errors.New("output is owned by another producer")
	ErrNotAuthority                 = errors.New("producer does not own output")
	ErrConnectionCycle              = errors.New("connection would create a cycle")
	ErrNoSources                    = errors.New("no sources")
)
