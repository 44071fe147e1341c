package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clicktrack/internal/fileutil"
	"clicktrack/internal/logging"
	"clicktrack/internal/services"
)

// VideoJob describes a caption video composition.
type VideoJob struct {
	AudioPath    string
	SubtitlePath string // ASS file burned into the frame
	CoverArtPath string // optional; a plain background is used when empty
	OutputPath   string
	Width        int
	Height       int
	FPS          int
	ArtHeight    int
	Codec        string
	DurationMs   float64
	Background   string
}

func (j VideoJob) validate() error {
	switch {
	case strings.TrimSpace(j.AudioPath) == "":
		return errors.New("audio path is required")
	case strings.TrimSpace(j.SubtitlePath) == "":
		return errors.New("subtitle path is required")
	case strings.TrimSpace(j.OutputPath) == "":
		return errors.New("output path is required")
	case j.Width <= 0 || j.Height <= 0:
		return fmt.Errorf("invalid frame size %dx%d", j.Width, j.Height)
	case j.FPS <= 0:
		return fmt.Errorf("invalid frame rate %d", j.FPS)
	case j.DurationMs <= 0:
		return fmt.Errorf("invalid duration %.0fms", j.DurationMs)
	}
	return nil
}

// ProgressFunc receives the fraction of the video encoded so far, in percent.
type ProgressFunc func(percent float64)

// ComposeVideo renders job.OutputPath. timeout of zero disables the limit.
func (c *Client) ComposeVideo(ctx context.Context, job VideoJob, timeout time.Duration, progress ProgressFunc) error {
	if err := job.validate(); err != nil {
		return services.Wrap(services.ErrValidation, "video", "validate job", err.Error(), nil)
	}
	for _, input := range []string{job.AudioPath, job.SubtitlePath, job.CoverArtPath} {
		if input == "" {
			continue
		}
		if _, err := os.Stat(input); err != nil {
			return services.Wrap(services.ErrNotFound, "video", "stat input", fmt.Sprintf("Video input %q not found", input), err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "video", "ensure output dir", "Unable to create output directory", err)
	}

	// Encode into the work dir; the finished file is moved into place.
	stageDir := c.workDir
	if stageDir == "" {
		stageDir = filepath.Dir(job.OutputPath)
	}
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "video", "ensure work dir", "Unable to create work directory", err)
	}
	tmp := filepath.Join(stageDir, ".partial-"+filepath.Base(job.OutputPath))

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := VideoArgs(job, tmp)
	c.logger.Debug("composing video",
		logging.String("output", job.OutputPath),
		logging.Bool("cover_art", job.CoverArtPath != ""),
		logging.Float64("duration_ms", job.DurationMs),
	)

	var stdout io.Writer
	if progress != nil {
		pw := newProgressWriter(job.DurationMs, progress)
		defer pw.Close()
		stdout = pw
	}
	if err := c.run(ctx, c.binary, args, stdout); err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "video", "ffmpeg", fmt.Sprintf("Video composition exceeded %s", timeout), err)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, "video", "ffmpeg", "Video composition failed", err)
	}
	if err := fileutil.MoveFile(tmp, job.OutputPath); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, "video", "finalize", "ffmpeg did not produce output", err)
	}
	return nil
}

// VideoArgs builds the ffmpeg argument list for job, writing to output.
// Input 0 is a generated background, input 1 the cover art when present,
// and the last input the mixed audio. The cover is scaled to ArtHeight and
// centered; captions are burned in with the subtitles filter.
func VideoArgs(job VideoJob, output string) []string {
	background := job.Background
	if background == "" {
		background = "black"
	}
	seconds := formatSeconds(job.DurationMs)
	size := fmt.Sprintf("%dx%d", job.Width, job.Height)
	codec := job.Codec
	if codec == "" {
		codec = "libx264"
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-progress", "pipe:1",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=%s:s=%s:r=%d:d=%s", background, size, job.FPS, seconds),
	}

	subtitles := "subtitles=filename=" + escapeFilterValue(job.SubtitlePath)
	var graph string
	audioInput := 1
	if job.CoverArtPath != "" {
		args = append(args, "-loop", "1", "-i", job.CoverArtPath)
		audioInput = 2
		artHeight := job.ArtHeight
		if artHeight <= 0 || artHeight > job.Height {
			artHeight = job.Height / 2
		}
		graph = fmt.Sprintf("[1:v]scale=-2:%d[art];[0:v][art]overlay=(W-w)/2:(H-h)/2:shortest=1,%s[v]", artHeight, subtitles)
	} else {
		graph = fmt.Sprintf("[0:v]%s[v]", subtitles)
	}
	args = append(args, "-i", job.AudioPath)

	return append(args,
		"-filter_complex", graph,
		"-map", "[v]",
		"-map", fmt.Sprintf("%d:a", audioInput),
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(job.FPS),
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", seconds,
		"-f", muxerFor(job.OutputPath),
		output,
	)
}

// muxerFor picks the container explicitly because the temporary output name
// does not end in the real extension.
func muxerFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mkv":
		return "matroska"
	case ".mov":
		return "mov"
	case ".webm":
		return "webm"
	default:
		return "mp4"
	}
}

func formatSeconds(ms float64) string {
	return strconv.FormatFloat(ms/1000, 'f', 3, 64)
}

// escapeFilterValue quotes a path for use as a filtergraph option value.
func escapeFilterValue(value string) string {
	r := strings.NewReplacer(`\`, `\\\\`, `'`, `\\\'`, `:`, `\\:`, `,`, `\,`, `[`, `\[`, `]`, `\]`, `;`, `\;`)
	return r.Replace(value)
}

// progressWriter parses ffmpeg's "-progress" key=value stream.
type progressWriter struct {
	pw    *io.PipeWriter
	done  chan struct{}
	total float64
}

func newProgressWriter(totalMs float64, fn ProgressFunc) *progressWriter {
	pr, pw := io.Pipe()
	w := &progressWriter{pw: pw, done: make(chan struct{}), total: totalMs}
	go func() {
		defer close(w.done)
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			if percent, ok := parseProgressLine(scanner.Text(), totalMs); ok {
				fn(percent)
			}
		}
		_, _ = io.Copy(io.Discard, pr)
	}()
	return w
}

func (w *progressWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *progressWriter) Close() error {
	err := w.pw.Close()
	<-w.done
	return err
}

func parseProgressLine(line string, totalMs float64) (float64, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok || totalMs <= 0 {
		return 0, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
		// ffmpeg reports both keys in microseconds.
		us, err := strconv.ParseFloat(value, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		return min(us/1000/totalMs*100, 100), true
	case "progress":
		if value == "end" {
			return 100, true
		}
	}
	return 0, false
}
