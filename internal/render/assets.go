package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clicktrack/internal/logging"
	"clicktrack/internal/media/audio"
	"clicktrack/internal/schedule"
	"clicktrack/internal/services"
)

// renderClicks loads the click samples, boosts them by the configured gain
// and renders the schedule's click track. The sub-beat sample is loaded only
// when some segment produces sub-beats.
func (r *Runner) renderClicks(ctx context.Context, sched *schedule.Schedule) (*audio.Buffer, error) {
	ctx, logger := r.stage(ctx, "clicks")
	format := r.format()
	assets := r.cfg.Assets

	var clicks audio.ClickSet
	var err error
	if clicks.Down, err = r.loadClick(ctx, "downbeat", assets.Downbeat); err != nil {
		return nil, err
	}
	if clicks.Up, err = r.loadClick(ctx, "upbeat", assets.Upbeat); err != nil {
		return nil, err
	}
	if audio.NeedsSub(sched) {
		if clicks.Sub, err = r.loadClick(ctx, "subbeat", assets.Subbeat); err != nil {
			return nil, err
		}
	}

	track, err := audio.RenderClickTrack(sched, clicks, format)
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, audio.ErrMissingClick) {
			marker = services.ErrConfiguration
		}
		return nil, services.Wrap(marker, "clicks", "render click track", "", err)
	}
	logger.Info("click track rendered",
		logging.Int("beats", sched.BeatCount()),
		logging.Float64("duration_ms", track.DurationMs()),
		logging.Bool("sub_beats", clicks.Sub != nil),
	)
	return track, nil
}

func (r *Runner) loadClick(ctx context.Context, name, path string) (*audio.Buffer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "clicks", "resolve asset", fmt.Sprintf("assets.%s is not set", name), nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "clicks", "resolve asset", fmt.Sprintf("assets.%s %q", name, path), err)
	}
	buf, err := r.decodeToFormat(ctx, path, -1)
	if err != nil {
		return nil, err
	}
	if r.cfg.Audio.ClickGainDB != 0 {
		buf.ApplyGainDB(r.cfg.Audio.ClickGainDB)
	}
	return buf, nil
}

// loadSongAudio reads the song in the render format. WAV files already at the
// render sample rate are read directly; everything else is probed for its
// best audio stream and converted with ffmpeg.
func (r *Runner) loadSongAudio(ctx context.Context, path string) (*audio.Buffer, error) {
	_, logger := r.stage(ctx, "song")
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrValidation, "song", "resolve audio", "song has no audio; set \"audio\" in the descriptor, pass --audio, or use --click-only", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "song", "resolve audio", path, err)
	}

	ordinal := -1
	if !isWAV(path) {
		if r.prober == nil {
			return nil, services.Wrap(services.ErrConfiguration, "song", "probe", "no prober configured", nil)
		}
		probe, err := r.prober.Inspect(ctx, path)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "song", "probe", path, err)
		}
		selection := audio.Select(probe.AudioStreams())
		if !selection.Found() {
			return nil, services.Wrap(services.ErrValidation, "song", "select stream", fmt.Sprintf("%s has no audio stream", filepath.Base(path)), nil)
		}
		ordinal = selection.Ordinal
		logger.Info("song audio selected",
			logging.String("path", path),
			logging.String("stream", selection.Label()),
			logging.Float64("duration_ms", probe.DurationMs()),
		)
	}

	buf, err := r.decodeToFormat(ctx, path, ordinal)
	if err != nil {
		return nil, err
	}
	logger.Debug("song audio decoded", logging.Float64("duration_ms", buf.DurationMs()))
	return buf, nil
}

// decodeToFormat returns path's audio in the render format, reading WAVs
// in place when only the channel count differs.
func (r *Runner) decodeToFormat(ctx context.Context, path string, ordinal int) (*audio.Buffer, error) {
	format := r.format()
	if isWAV(path) {
		buf, err := audio.ReadWAV(path)
		if err == nil && buf.Format.SampleRate == format.SampleRate {
			out, err := buf.WithChannels(format.Channels)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "decode", "remix channels", path, err)
			}
			return out, nil
		}
	}

	if r.converter == nil {
		return nil, services.Wrap(services.ErrConfiguration, "decode", "convert", "no audio converter configured", nil)
	}
	converted, err := r.converter.ToWAV(ctx, path, format, ordinal)
	if err != nil {
		return nil, err
	}
	defer os.Remove(converted)

	buf, err := audio.ReadWAV(converted)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "decode", "read converted", path, err)
	}
	if buf.Format != format {
		return nil, services.Wrap(services.ErrExternalTool, "decode", "read converted",
			fmt.Sprintf("converter produced %d Hz/%d ch, want %d Hz/%d ch", buf.Format.SampleRate, buf.Format.Channels, format.SampleRate, format.Channels), nil)
	}
	return buf, nil
}

func isWAV(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".wav" || ext == ".wave"
}
