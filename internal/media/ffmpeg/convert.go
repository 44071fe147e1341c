package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"clicktrack/internal/logging"
	"clicktrack/internal/media/audio"
	"clicktrack/internal/services"
)

// ToWAV decodes the audio stream at ordinal of input into a 16-bit PCM WAV
// in the render format and returns its path inside the work directory.
// ordinal counts audio streams only, as in ffmpeg's "0:a:N"; a negative
// ordinal lets ffmpeg pick the default stream. The caller owns the returned
// file.
func (c *Client) ToWAV(ctx context.Context, input string, format audio.Format, ordinal int) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", services.Wrap(services.ErrValidation, "convert", "resolve input", "No audio input given", nil)
	}
	if _, err := os.Stat(input); err != nil {
		return "", services.Wrap(services.ErrNotFound, "convert", "stat input", fmt.Sprintf("Audio input %q not found", input), err)
	}
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "convert", "ensure work dir", "Unable to create work directory", err)
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dest := filepath.Join(c.workDir, fmt.Sprintf("%s-%s.wav", stem, uuid.NewString()[:8]))
	tmp := dest + ".part"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := ConvertArgs(input, tmp, format, ordinal)
	c.logger.Debug("converting audio",
		logging.String("input", input),
		logging.Int("audio_ordinal", ordinal),
		logging.Int("sample_rate", format.SampleRate),
		logging.Int("channels", format.Channels),
	)
	if err := c.run(ctx, c.binary, args, nil); err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "convert", "ffmpeg", fmt.Sprintf("Conversion exceeded %s", c.timeout), err)
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", services.Wrap(services.ErrExternalTool, "convert", "ffmpeg", "Audio conversion failed", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrExternalTool, "convert", "finalize", "ffmpeg did not produce output", err)
	}
	return dest, nil
}

// ConvertArgs builds the ffmpeg argument list for ToWAV.
func ConvertArgs(input, output string, format audio.Format, ordinal int) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
	}
	if ordinal >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:a:%d", ordinal))
	}
	return append(args,
		"-vn",
		"-sn",
		"-dn",
		"-ac", strconv.Itoa(format.Channels),
		"-ar", strconv.Itoa(format.SampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		output,
	)
}
