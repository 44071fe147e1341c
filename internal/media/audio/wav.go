package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"clicktrack/internal/fileutil"
)

const pcmFormat = 1

// ReadWAV decodes a PCM WAV file into 16-bit samples. 8, 24 and 32-bit
// sources are rescaled.
func ReadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	if decoder.WavAudioFormat != pcmFormat {
		return nil, fmt.Errorf("%s: unsupported wav encoding %d, want PCM", path, decoder.WavAudioFormat)
	}
	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}

	format := Format{SampleRate: int(decoder.SampleRate), Channels: int(decoder.NumChans)}
	if err := format.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	depth := int(decoder.BitDepth)
	samples := make([]int16, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = to16Bit(v, depth)
	}
	return &Buffer{Format: format, Samples: samples}, nil
}

func to16Bit(v, depth int) int16 {
	switch depth {
	case 8:
		return int16((v - 128) << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	default:
		return int16(v)
	}
}

// WriteWAV encodes buf as a 16-bit PCM WAV at path. The file appears only
// once encoding has finished.
func WriteWAV(path string, buf *Buffer) error {
	if err := buf.Format.validate(); err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, func(f *os.File) error {
		encoder := wav.NewEncoder(f, buf.Format.SampleRate, 16, buf.Format.Channels, pcmFormat)
		data := make([]int, len(buf.Samples))
		for i, s := range buf.Samples {
			data[i] = int(s)
		}
		intBuf := &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: buf.Format.Channels,
				SampleRate:  buf.Format.SampleRate,
			},
			Data:           data,
			SourceBitDepth: 16,
		}
		if err := encoder.Write(intBuf); err != nil {
			return fmt.Errorf("encode wav: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("finalize wav: %w", err)
		}
		return nil
	})
}
