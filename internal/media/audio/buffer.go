package audio

import (
	"fmt"
	"math"
)

// Format describes interleaved PCM frames.
type Format struct {
	SampleRate int
	Channels   int
}

func (f Format) validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", f.Channels)
	}
	return nil
}

// FramesFor converts a millisecond position to a frame index.
func (f Format) FramesFor(ms float64) int {
	if ms <= 0 {
		return 0
	}
	return int(math.Round(ms * float64(f.SampleRate) / 1000))
}

// Buffer is interleaved signed 16-bit audio.
type Buffer struct {
	Format  Format
	Samples []int16
}

// NewSilence returns a buffer of frames silent frames.
func NewSilence(format Format, frames int) *Buffer {
	if frames < 0 {
		frames = 0
	}
	return &Buffer{Format: format, Samples: make([]int16, frames*format.Channels)}
}

// Frames is the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// DurationMs is the buffer length in milliseconds.
func (b *Buffer) DurationMs() float64 {
	if b.Format.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) * 1000 / float64(b.Format.SampleRate)
}

// ApplyGainDB scales every sample by db decibels, clipping at the int16 range.
func (b *Buffer) ApplyGainDB(db float64) {
	if db == 0 {
		return
	}
	factor := math.Pow(10, db/20)
	for i, s := range b.Samples {
		b.Samples[i] = clip(math.Round(float64(s) * factor))
	}
}

// WithChannels returns the buffer converted to channels. Mono is duplicated
// across outputs; multi-channel input is averaged down to mono first.
func (b *Buffer) WithChannels(channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if b.Format.Channels == channels {
		return b, nil
	}
	frames := b.Frames()
	out := &Buffer{
		Format:  Format{SampleRate: b.Format.SampleRate, Channels: channels},
		Samples: make([]int16, frames*channels),
	}
	in := b.Format.Channels
	for f := 0; f < frames; f++ {
		var sum int
		for c := 0; c < in; c++ {
			sum += int(b.Samples[f*in+c])
		}
		mono := int16(sum / in)
		for c := 0; c < channels; c++ {
			out.Samples[f*channels+c] = mono
		}
	}
	return out, nil
}

func clip(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
