package audio

import (
	"errors"
	"fmt"

	"clicktrack/internal/schedule"
)

// ErrMissingClick is returned when a beat needs a click sample that was not
// provided.
var ErrMissingClick = errors.New("missing click sample")

// ClickSet holds the samples for each beat kind. Sub may be nil when no
// segment subdivides its beats.
type ClickSet struct {
	Down *Buffer
	Up   *Buffer
	Sub  *Buffer
}

// For returns the sample for kind.
func (c ClickSet) For(kind schedule.BeatKind) (*Buffer, error) {
	var buf *Buffer
	switch kind {
	case schedule.BeatDown:
		buf = c.Down
	case schedule.BeatUp:
		buf = c.Up
	case schedule.BeatSub:
		buf = c.Sub
	default:
		return nil, fmt.Errorf("unknown beat kind %q", kind)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingClick, kind)
	}
	return buf, nil
}

// NeedsSub reports whether any beat in the schedule is a subdivision click.
func NeedsSub(sched *schedule.Schedule) bool {
	for _, sig := range sched.Signatures() {
		if sig.SubBeatMultiplier > 0 && !sig.Promoted() && sig.BeatsInMeasure > sig.SubBeatMultiplier {
			return true
		}
	}
	return false
}

// RenderClickTrack lays one click per beat onto a single buffer sized for
// the whole schedule. Each click is cut to the beat's duration, or padded
// with silence when the sample is shorter. Segment offset gaps are silence.
// Every click sample must already be in format.
func RenderClickTrack(sched *schedule.Schedule, clicks ClickSet, format Format) (*Buffer, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	ch := format.Channels
	total := format.FramesFor(sched.DurationMs())
	out := make([]int16, 0, total*ch)

	for ev, err := range sched.Beats() {
		if err != nil {
			return nil, err
		}
		sample, err := clicks.For(ev.Kind)
		if err != nil {
			return nil, fmt.Errorf("measure %d beat %d: %w", ev.Measure, ev.Beat+1, err)
		}
		if sample.Format != format {
			return nil, fmt.Errorf("%s click is %d Hz/%d ch, want %d Hz/%d ch", ev.Kind, sample.Format.SampleRate, sample.Format.Channels, format.SampleRate, format.Channels)
		}
		start := format.FramesFor(ev.StartMs)
		end := format.FramesFor(ev.StartMs + ev.DurationMs)
		out = appendSilence(out, start*ch-len(out))
		n := min(end-start, sample.Frames()) * ch
		out = append(out, sample.Samples[:n]...)
		out = appendSilence(out, end*ch-len(out))
	}
	out = appendSilence(out, total*ch-len(out))
	return &Buffer{Format: format, Samples: out}, nil
}

func appendSilence(dst []int16, n int) []int16 {
	if n <= 0 {
		return dst
	}
	return append(dst, make([]int16, n)...)
}
