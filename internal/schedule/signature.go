package schedule

import (
	"fmt"
	"math"
	"strconv"
)

// BeatKind classifies a beat within a measure.
type BeatKind string

const (
	BeatDown BeatKind = "down"
	BeatUp   BeatKind = "up"
	BeatSub  BeatKind = "sub"
)

// Segment is one time-signature span as authored in a song descriptor.
// A zero SubBeatMultiplier means no subdivision is configured.
type Segment struct {
	Numerator         int
	Denominator       int
	BPM               float64
	Measures          int
	OffsetMs          int
	SubBeatMultiplier int
	SubBeatsAsUpbeats bool
}

// Signature is a fully resolved segment.
//
// BPM and BeatDurationMs are the effective pulse after subdivision promotion.
// MeasureDurationMs is always the nominal value, numerator times the
// unpromoted beat duration.
type Signature struct {
	Numerator             int
	Denominator           int
	OffsetMs              int
	BPM                   float64
	BeatDurationMs        float64
	NominalBeatDurationMs float64
	MeasureDurationMs     float64
	BeatsInMeasure        int
	Measures              int
	SubBeatMultiplier     int
	SubBeatsAsUpbeats     bool
}

// Decode resolves a segment into a Signature.
func Decode(seg Segment) (Signature, error) {
	if err := validateSegment(seg); err != nil {
		return Signature{}, err
	}

	beatDuration := 60000 / seg.BPM
	measureDuration := beatDuration * float64(seg.Numerator)

	multiplier := seg.SubBeatMultiplier
	promoted := seg.SubBeatsAsUpbeats
	if multiplier == 0 {
		promoted = false
	}
	if multiplier != 0 && seg.Numerator%multiplier != 0 {
		return Signature{}, fmt.Errorf("%w: multiplier %d does not divide numerator %d", ErrSubdivisionMismatch, multiplier, seg.Numerator)
	}

	sig := Signature{
		Numerator:             seg.Numerator,
		Denominator:           seg.Denominator,
		OffsetMs:              seg.OffsetMs,
		BPM:                   seg.BPM,
		BeatDurationMs:        beatDuration,
		NominalBeatDurationMs: beatDuration,
		MeasureDurationMs:     measureDuration,
		BeatsInMeasure:        seg.Numerator,
		Measures:              seg.Measures,
		SubBeatMultiplier:     multiplier,
		SubBeatsAsUpbeats:     promoted,
	}
	if promoted {
		sig.BeatsInMeasure = seg.Numerator / multiplier
		sig.BPM = seg.BPM / float64(multiplier)
		sig.BeatDurationMs = beatDuration * float64(multiplier)
	}
	return sig, nil
}

func validateSegment(seg Segment) error {
	switch {
	case seg.Numerator <= 0:
		return fmt.Errorf("%w: numerator must be positive, got %d", ErrInvalidSegment, seg.Numerator)
	case seg.Denominator <= 0:
		return fmt.Errorf("%w: denominator must be positive, got %d", ErrInvalidSegment, seg.Denominator)
	case math.IsNaN(seg.BPM) || math.IsInf(seg.BPM, 0) || seg.BPM <= 0:
		return fmt.Errorf("%w: bpm must be a positive number, got %v", ErrInvalidSegment, seg.BPM)
	case seg.Measures <= 0:
		return fmt.Errorf("%w: measures must be positive, got %d", ErrInvalidSegment, seg.Measures)
	case seg.SubBeatMultiplier < 0:
		return fmt.Errorf("%w: sub_beat_multiplier must be positive, got %d", ErrInvalidSegment, seg.SubBeatMultiplier)
	}
	return nil
}

// Promoted reports whether subdivisions were folded into a coarser pulse.
func (s Signature) Promoted() bool {
	return s.SubBeatsAsUpbeats && s.SubBeatMultiplier != 0
}

// BeatKind classifies the zero-based beat index within a measure.
func (s Signature) BeatKind(index int) (BeatKind, error) {
	return ClassifyBeat(s.BeatsInMeasure, s.SubBeatMultiplier, s.Promoted(), index)
}

// ClassifyBeat returns the kind of beat at index for a measure of
// beatsInMeasure pulses. multiplier is zero when no subdivision is configured.
func ClassifyBeat(beatsInMeasure, multiplier int, promoted bool, index int) (BeatKind, error) {
	if index < 0 || index >= beatsInMeasure {
		return "", fmt.Errorf("%w: index %d, measure has %d beats", ErrBeatIndexOutOfRange, index, beatsInMeasure)
	}
	switch {
	case index == 0:
		return BeatDown, nil
	case promoted:
		return BeatUp, nil
	case multiplier == 0:
		return BeatUp, nil
	case index%multiplier == 0:
		return BeatSub, nil
	default:
		return BeatUp, nil
	}
}

// Label renders the time signature for display, noting the pulse count when
// it differs from the numerator, e.g. "6/8 (in 2)".
func (s Signature) Label() string {
	label := strconv.Itoa(s.Numerator) + "/" + strconv.Itoa(s.Denominator)
	if s.BeatsInMeasure != s.Numerator {
		label += " (in " + strconv.Itoa(s.BeatsInMeasure) + ")"
	}
	return label
}

// SpanMs is the total time the segment occupies, including its offset gap.
func (s Signature) SpanMs() float64 {
	return float64(s.Measures)*float64(s.BeatsInMeasure)*s.BeatDurationMs + math.Abs(float64(s.OffsetMs))
}
