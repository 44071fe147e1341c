package audio

import (
	"fmt"

	"clicktrack/internal/schedule"
)

// Overlay pads the song and click track per the alignment and mixes them.
// The result runs until the longer padded input ends; the click track is
// never truncated.
func Overlay(song, click *Buffer, align schedule.Alignment) (*Buffer, error) {
	if song.Format != click.Format {
		return nil, fmt.Errorf("cannot mix %d Hz/%d ch song with %d Hz/%d ch click track",
			song.Format.SampleRate, song.Format.Channels, click.Format.SampleRate, click.Format.Channels)
	}
	format := song.Format
	ch := format.Channels
	songStart := format.FramesFor(align.SongPadMs) * ch
	clickStart := format.FramesFor(align.ClickPadMs) * ch
	total := max(songStart+len(song.Samples), clickStart+len(click.Samples))

	mixed := make([]int32, total)
	for i, s := range song.Samples {
		mixed[songStart+i] += int32(s)
	}
	for i, s := range click.Samples {
		mixed[clickStart+i] += int32(s)
	}
	out := make([]int16, total)
	for i, v := range mixed {
		out[i] = clip(float64(v))
	}
	return &Buffer{Format: format, Samples: out}, nil
}

// Pad returns the click track on its own, delayed by the alignment's click
// padding and extended by its tail.
func Pad(click *Buffer, align schedule.Alignment) *Buffer {
	ch := click.Format.Channels
	lead := click.Format.FramesFor(align.ClickPadMs) * ch
	tail := click.Format.FramesFor(align.ClickTailMs) * ch
	out := make([]int16, 0, lead+len(click.Samples)+tail)
	out = appendSilence(out, lead)
	out = append(out, click.Samples...)
	out = appendSilence(out, tail)
	return &Buffer{Format: click.Format, Samples: out}
}
