package schedule

import (
	"fmt"
	"iter"
)

// BeatEvent is one click in the walked schedule. StartMs is relative to the
// start of the schedule; the song-level initial offset is not included.
type BeatEvent struct {
	Segment    int
	Measure    int
	Beat       int
	Kind       BeatKind
	StartMs    float64
	DurationMs float64
}

// MeasureEvent marks the start of a measure. DurationMs is the nominal
// measure duration of its signature.
type MeasureEvent struct {
	Segment    int
	Measure    int
	StartMs    float64
	DurationMs float64
	Signature  Signature
}

// Schedule is the decoded form of a song's segments. It holds only plain
// data; every walk recomputes events from the signatures.
type Schedule struct {
	signatures []Signature
}

// Build decodes every segment. Decoding is all-or-nothing: the first invalid
// segment aborts the build and no schedule is returned.
func Build(segments []Segment) (*Schedule, error) {
	sigs := make([]Signature, 0, len(segments))
	for i, seg := range segments {
		sig, err := Decode(seg)
		if err != nil {
			return nil, fmt.Errorf("time signature %d: %w", i+1, err)
		}
		sigs = append(sigs, sig)
	}
	return &Schedule{signatures: sigs}, nil
}

// Signatures returns a copy of the decoded segments in song order.
func (s *Schedule) Signatures() []Signature {
	out := make([]Signature, len(s.signatures))
	copy(out, s.signatures)
	return out
}

// Beats walks the schedule, yielding one event per beat. Positive segment
// offsets open a leading gap before the segment's first beat; negative
// offsets leave a trailing gap after its last beat. The measure counter runs
// across the whole song. A classification failure is yielded once and ends
// the walk.
func (s *Schedule) Beats() iter.Seq2[BeatEvent, error] {
	return func(yield func(BeatEvent, error) bool) {
		var cursor float64
		measure := 0
		for segIdx, sig := range s.signatures {
			if sig.OffsetMs > 0 {
				cursor += float64(sig.OffsetMs)
			}
			for m := 0; m < sig.Measures; m++ {
				measure++
				for beat := 0; beat < sig.BeatsInMeasure; beat++ {
					kind, err := sig.BeatKind(beat)
					if err != nil {
						yield(BeatEvent{}, fmt.Errorf("measure %d: %w", measure, err))
						return
					}
					ev := BeatEvent{
						Segment:    segIdx,
						Measure:    measure,
						Beat:       beat,
						Kind:       kind,
						StartMs:    cursor,
						DurationMs: sig.BeatDurationMs,
					}
					if !yield(ev, nil) {
						return
					}
					cursor += sig.BeatDurationMs
				}
			}
			// TODO: decide whether a negative offset should open a leading gap instead.
			if sig.OffsetMs < 0 {
				cursor += float64(-sig.OffsetMs)
			}
		}
	}
}

// Measures walks the schedule at measure granularity using the same gap
// rules as Beats.
func (s *Schedule) Measures() iter.Seq[MeasureEvent] {
	return func(yield func(MeasureEvent) bool) {
		var cursor float64
		measure := 0
		for segIdx, sig := range s.signatures {
			if sig.OffsetMs > 0 {
				cursor += float64(sig.OffsetMs)
			}
			for m := 0; m < sig.Measures; m++ {
				measure++
				ev := MeasureEvent{
					Segment:    segIdx,
					Measure:    measure,
					StartMs:    cursor,
					DurationMs: sig.MeasureDurationMs,
					Signature:  sig,
				}
				if !yield(ev) {
					return
				}
				cursor += sig.MeasureDurationMs
			}
			if sig.OffsetMs < 0 {
				cursor += float64(-sig.OffsetMs)
			}
		}
	}
}

// DurationMs is the cursor position after the full walk, including trailing
// gaps from negative offsets.
func (s *Schedule) DurationMs() float64 {
	var total float64
	for _, sig := range s.signatures {
		total += sig.SpanMs()
	}
	return total
}

// BeatCount is the number of events Beats yields.
func (s *Schedule) BeatCount() int {
	total := 0
	for _, sig := range s.signatures {
		total += sig.Measures * sig.BeatsInMeasure
	}
	return total
}

// MeasureCount is the number of events Measures yields.
func (s *Schedule) MeasureCount() int {
	total := 0
	for _, sig := range s.signatures {
		total += sig.Measures
	}
	return total
}
