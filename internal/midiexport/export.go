package midiexport

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"clicktrack/internal/fileutil"
	"clicktrack/internal/schedule"
)

// TicksPerQuarter is the file resolution.
const TicksPerQuarter = 960

const drumChannel = 9

// General MIDI percussion keys and velocities per beat kind.
var voices = map[schedule.BeatKind]struct{ key, velocity uint8 }{
	schedule.BeatDown: {key: 76, velocity: 127},
	schedule.BeatUp:   {key: 77, velocity: 100},
	schedule.BeatSub:  {key: 37, velocity: 80},
}

// Options adjusts the export.
type Options struct {
	// Title becomes the track name when set.
	Title string
	// LeadMs shifts every event later, matching the padding applied to the
	// click track in the rendered mix.
	LeadMs float64
}

// tempoPoint anchors the ms to tick mapping from startMs onward.
type tempoPoint struct {
	startMs   float64
	startTick float64
	quarterMs float64
}

type tempoMap []tempoPoint

func (m tempoMap) tickAt(ms float64) uint32 {
	p := m[0]
	for _, candidate := range m[1:] {
		if candidate.startMs > ms {
			break
		}
		p = candidate
	}
	return uint32(math.Round(p.startTick + (ms-p.startMs)/p.quarterMs*TicksPerQuarter))
}

func (m tempoMap) add(ms, quarterMs float64) tempoMap {
	if len(m) == 0 {
		return append(m, tempoPoint{startMs: ms, quarterMs: quarterMs})
	}
	last := m[len(m)-1]
	tick := last.startTick + (ms-last.startMs)/last.quarterMs*TicksPerQuarter
	return append(m, tempoPoint{startMs: ms, startTick: tick, quarterMs: quarterMs})
}

// quarterMs is the length of a quarter note under sig. The measure grid
// follows the authored numerator and denominator, so a 6/8 segment spans
// three quarters whatever its click subdivision.
func quarterMs(sig schedule.Signature) float64 {
	return sig.NominalBeatDurationMs * float64(sig.Denominator) / 4
}

// checkMeter rejects signatures a MIDI time signature event cannot carry: the
// numerator is a single byte and the denominator is stored as a power of two.
func checkMeter(sig schedule.Signature) error {
	if sig.Numerator > math.MaxUint8 {
		return fmt.Errorf("numerator %d exceeds %d", sig.Numerator, math.MaxUint8)
	}
	if d := sig.Denominator; d&(d-1) != 0 || d > 1<<7 {
		return fmt.Errorf("denominator %d is not a power of two up to 128", d)
	}
	return nil
}

type timedMessage struct {
	tick  uint32
	order int
	msg   []byte
}

// Build converts sched into an SMF.
func Build(sched *schedule.Schedule, opts Options) (*smf.SMF, error) {
	if sched == nil || sched.BeatCount() == 0 {
		return nil, fmt.Errorf("midi export: empty schedule")
	}
	lead := max(opts.LeadMs, 0)

	var tempos tempoMap
	var events []timedMessage
	lastSegment := -1
	for ev := range sched.Measures() {
		if ev.Segment == lastSegment {
			continue
		}
		lastSegment = ev.Segment
		sig := ev.Signature
		if err := checkMeter(sig); err != nil {
			return nil, fmt.Errorf("midi export: measure %d: %w", ev.Measure, err)
		}
		at := ev.StartMs + lead
		if len(tempos) == 0 {
			at = 0
		}
		tempos = tempos.add(at, quarterMs(sig))
		tick := tempos.tickAt(at)
		events = append(events,
			timedMessage{tick: tick, order: 0, msg: smf.MetaTempo(60000 / quarterMs(sig))},
			timedMessage{tick: tick, order: 1, msg: smf.MetaMeter(uint8(sig.Numerator), uint8(sig.Denominator))},
		)
	}

	sigs := sched.Signatures()
	for ev, err := range sched.Beats() {
		if err != nil {
			return nil, fmt.Errorf("midi export: %w", err)
		}
		voice := voices[ev.Kind]
		start := ev.StartMs + lead
		on := tempos.tickAt(start)
		length := uint32(math.Round(ev.DurationMs / quarterMs(sigs[ev.Segment]) * TicksPerQuarter / 8))
		events = append(events,
			timedMessage{tick: on, order: 3, msg: midi.NoteOn(drumChannel, voice.key, voice.velocity)},
			timedMessage{tick: on + max(length, 1), order: 2, msg: midi.NoteOff(drumChannel, voice.key)},
		)
	}

	slices.SortStableFunc(events, func(a, b timedMessage) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	var track smf.Track
	if opts.Title != "" {
		track.Add(0, smf.MetaTrackSequenceName(opts.Title))
	}
	var cursor uint32
	for _, ev := range events {
		track.Add(ev.tick-cursor, ev.msg)
		cursor = ev.tick
	}
	track.Close(0)

	file := smf.New()
	file.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := file.Add(track); err != nil {
		return nil, fmt.Errorf("midi export: %w", err)
	}
	return file, nil
}

// Write encodes sched as MIDI to w.
func Write(w io.Writer, sched *schedule.Schedule, opts Options) error {
	file, err := Build(sched, opts)
	if err != nil {
		return err
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("midi export: write: %w", err)
	}
	return nil
}

// WriteFile encodes sched as MIDI at path.
func WriteFile(path string, sched *schedule.Schedule, opts Options) error {
	return fileutil.WriteAtomic(path, func(f *os.File) error {
		return Write(f, sched, opts)
	})
}
