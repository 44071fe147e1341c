package schedule

import "errors"

var (
	// ErrSubdivisionMismatch reports a sub-beat multiplier that does not evenly
	// divide the segment numerator.
	ErrSubdivisionMismatch = errors.New("subdivision mismatch")
	// ErrBeatIndexOutOfRange reports a classification request outside the measure.
	ErrBeatIndexOutOfRange = errors.New("beat index out of range")
	// ErrInvalidSegment reports a segment with a non-positive numerator,
	// denominator, tempo, measure count, or multiplier.
	ErrInvalidSegment = errors.New("invalid signature segment")
)
