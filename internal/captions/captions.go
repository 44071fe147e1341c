package captions

import (
	"fmt"
	"strconv"
	"strings"

	"clicktrack/internal/schedule"
)

// Caption is one measure's on-screen text.
type Caption struct {
	Index   int
	Measure int
	StartMs float64
	EndMs   float64
	Text    string
}

// DurationMs is the time the caption stays on screen.
func (c Caption) DurationMs() float64 {
	return c.EndMs - c.StartMs
}

// Build returns one caption per measure. originMs shifts the whole schedule
// onto the render timeline. When totalMs is past the last caption's start the
// last caption is held until totalMs.
func Build(sched *schedule.Schedule, originMs, totalMs float64) []Caption {
	out := make([]Caption, 0, sched.MeasureCount())
	for m := range sched.Measures() {
		start := originMs + m.StartMs
		out = append(out, Caption{
			Index:   len(out) + 1,
			Measure: m.Measure,
			StartMs: start,
			EndMs:   start + m.DurationMs,
			Text:    Text(m.Signature, m.Measure),
		})
	}
	if n := len(out); n > 0 && totalMs > out[n-1].StartMs {
		out[n-1].EndMs = totalMs
	}
	return out
}

// Text renders the caption body for a measure.
func Text(sig schedule.Signature, measure int) string {
	var b strings.Builder
	b.WriteString("Time Signature: ")
	b.WriteString(sig.Label())
	b.WriteString("\nTempo: ")
	b.WriteString(FormatBPM(sig.BPM))
	b.WriteString(" BPM\nMeasure: ")
	b.WriteString(strconv.Itoa(measure))
	return b.String()
}

// FormatBPM prints a tempo without trailing zeros.
func FormatBPM(bpm float64) string {
	return strconv.FormatFloat(bpm, 'f', -1, 64)
}

// EndMs returns the latest caption end, or zero when there are no captions.
func EndMs(caps []Caption) float64 {
	var end float64
	for _, c := range caps {
		if c.EndMs > end {
			end = c.EndMs
		}
	}
	return end
}

func splitMillis(ms float64) (hours, minutes, seconds, millis int) {
	if ms < 0 {
		ms = 0
	}
	total := int(ms + 0.5)
	hours = total / 3_600_000
	total %= 3_600_000
	minutes = total / 60_000
	total %= 60_000
	seconds = total / 1000
	millis = total % 1000
	return hours, minutes, seconds, millis
}

func validate(caps []Caption) error {
	for _, c := range caps {
		if c.EndMs < c.StartMs {
			return fmt.Errorf("caption %d ends before it starts", c.Index)
		}
	}
	return nil
}
