package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"clicktrack/internal/captions"
	"clicktrack/internal/config"
	"clicktrack/internal/history"
	"clicktrack/internal/logging"
	"clicktrack/internal/media/audio"
	"clicktrack/internal/media/ffmpeg"
	"clicktrack/internal/media/ffprobe"
	"clicktrack/internal/midiexport"
	"clicktrack/internal/notifications"
	"clicktrack/internal/schedule"
	"clicktrack/internal/services"
	"clicktrack/internal/song"
)

// AudioConverter decodes arbitrary audio into a WAV in the render format.
type AudioConverter interface {
	ToWAV(ctx context.Context, input string, format audio.Format, ordinal int) (string, error)
}

// Prober inspects a media file.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// ProbeFunc adapts a function to Prober.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Inspect calls f.
func (f ProbeFunc) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	return f(ctx, path)
}

// VideoComposer renders the caption video.
type VideoComposer interface {
	ComposeVideo(ctx context.Context, job ffmpeg.VideoJob, timeout time.Duration, progress ffmpeg.ProgressFunc) error
}

// HistoryRecorder persists a finished render.
type HistoryRecorder interface {
	Record(ctx context.Context, entry history.Entry) (int64, error)
}

// Runner executes render jobs.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	converter AudioConverter
	prober    Prober
	video     VideoComposer
	history   HistoryRecorder
	notifier  notifications.Service
	now       func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithConverter replaces the ffmpeg audio converter.
func WithConverter(c AudioConverter) Option {
	return func(r *Runner) { r.converter = c }
}

// WithProber replaces the ffprobe inspector.
func WithProber(p Prober) Option {
	return func(r *Runner) { r.prober = p }
}

// WithVideoComposer replaces the ffmpeg video composer.
func WithVideoComposer(v VideoComposer) Option {
	return func(r *Runner) { r.video = v }
}

// WithHistory records every render, successful or not.
func WithHistory(h HistoryRecorder) Option {
	return func(r *Runner) { r.history = h }
}

// WithNotifier replaces the configured ntfy notifier.
func WithNotifier(n notifications.Service) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner constructs a Runner backed by the configured ffmpeg and ffprobe.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	logger = logging.NewComponentLogger(logger, "render")
	client := ffmpeg.New(cfg.Tools.FFmpegBinary, cfg.Paths.WorkDir,
		ffmpeg.WithTimeout(cfg.ConvertTimeout()),
		ffmpeg.WithLogger(logger),
	)
	r := &Runner{
		cfg:       cfg,
		logger:    logger,
		converter: client,
		video:     client,
		prober: ProbeFunc(func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, cfg.Tools.FFprobeBinary, path)
		}),
		notifier: notifications.NewService(cfg),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) format() audio.Format {
	return audio.Format{SampleRate: r.cfg.Audio.SampleRate, Channels: r.cfg.Audio.Channels}
}

func (r *Runner) stage(ctx context.Context, name string) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, name)
	return ctx, logging.WithContext(ctx, r.logger)
}

// Run executes job. The song descriptor is parsed and its schedule decoded
// before any output is touched, so an invalid descriptor never leaves files
// behind.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	started := r.now()
	result := &Result{RenderID: uuid.NewString()}
	ctx = services.WithRenderID(ctx, result.RenderID)

	err := r.execute(ctx, job, result)
	result.Elapsed = r.now().Sub(started)
	if err != nil {
		r.logFailure(ctx, err)
	}
	r.record(ctx, job, result, started, err)
	r.notify(ctx, result, err)
	if err != nil {
		return result, err
	}
	return result, nil
}

// logFailure reports input problems as warnings and everything else as errors.
func (r *Runner) logFailure(ctx context.Context, err error) {
	logger := logging.WithContext(ctx, r.logger)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("render cancelled")
	case services.IsUserError(err):
		logger.Warn("render rejected", logging.String(logging.FieldErrorKind, services.Kind(err)), logging.Error(err))
	default:
		logging.ErrorWithContext(logger, "render failed", "render_failed", err)
	}
}

func (r *Runner) execute(ctx context.Context, job Job, result *Result) error {
	_, logger := r.stage(ctx, "load")
	s, err := song.Load(job.SongPath)
	if err != nil {
		return classifyLoadError(err)
	}
	result.Song = s
	ctx = services.WithSong(ctx, s.DisplayTitle())
	sched, err := s.Schedule()
	if err != nil {
		return services.Wrap(services.ErrValidation, "load", "decode schedule", s.DisplayTitle(), err)
	}
	result.Measures = sched.MeasureCount()
	result.Beats = sched.BeatCount()
	logger.Info("song loaded",
		logging.String("song", s.DisplayTitle()),
		logging.Int("segments", len(s.Segments)),
		logging.Int("measures", result.Measures),
		logging.Int("beats", result.Beats),
	)

	paths := resolvePaths(r.cfg, job, s)
	unlock, err := lockOutput(paths.audio)
	if err != nil {
		return err
	}
	defer unlock()

	click, err := r.renderClicks(ctx, sched)
	if err != nil {
		return err
	}

	mixCtx, logger := r.stage(ctx, "mix")
	var mixed *audio.Buffer
	if job.ClickOnly {
		result.Alignment = schedule.Align(click.DurationMs(), click.DurationMs(), s.InitialOffsetMs)
		mixed = audio.Pad(click, result.Alignment)
	} else {
		songAudio, err := r.loadSongAudio(mixCtx, firstNonEmpty(job.AudioPath, s.AudioPath))
		if err != nil {
			return err
		}
		if r.cfg.Audio.SongGainDB != 0 {
			songAudio.ApplyGainDB(r.cfg.Audio.SongGainDB)
		}
		result.Alignment = schedule.Align(songAudio.DurationMs(), click.DurationMs(), s.InitialOffsetMs)
		mixed, err = audio.Overlay(songAudio, click, result.Alignment)
		if err != nil {
			return services.Wrap(services.ErrValidation, "mix", "overlay", "", err)
		}
	}
	if err := audio.WriteWAV(paths.audio, mixed); err != nil {
		return services.Wrap(services.ErrConfiguration, "mix", "write wav", paths.audio, err)
	}
	result.AudioPath = paths.audio
	logger.Info("audio written",
		logging.String("path", paths.audio),
		logging.Float64("click_pad_ms", result.Alignment.ClickPadMs),
		logging.Float64("song_pad_ms", result.Alignment.SongPadMs),
		logging.Duration("total", time.Duration(result.Alignment.TotalMs*float64(time.Millisecond))),
	)

	_, logger = r.stage(ctx, "captions")
	caps := captions.Build(sched, result.Alignment.CaptionOriginMs(), result.Alignment.TotalMs)
	header := captions.Header{Title: s.DisplayTitle(), Album: s.Album, Artist: s.Artist}
	layout := CaptionLayout(r.cfg)
	if err := captions.WriteFile(paths.captions, caps, header, layout, result.Alignment.TotalMs); err != nil {
		return services.Wrap(services.ErrConfiguration, "captions", "write", paths.captions, err)
	}
	result.Captions = len(caps)
	result.CaptionsPath = paths.captions
	if isSRT(paths.captions) {
		if issues := captions.ValidateSRTFile(paths.captions, len(caps), result.Alignment.TotalMs/1000); len(issues) > 0 {
			logger.Warn("caption file validation issues", logging.String("issues", strings.Join(issues, ",")))
		}
	}
	logger.Info("captions written", logging.String("path", paths.captions), logging.Int("captions", len(caps)))

	if paths.video != "" {
		if err := r.composeVideo(ctx, job, s, caps, header, layout, paths, result); err != nil {
			return err
		}
	}

	if paths.midi != "" {
		_, logger = r.stage(ctx, "midi")
		opts := midiexport.Options{Title: s.DisplayTitle(), LeadMs: result.Alignment.ClickPadMs}
		if err := midiexport.WriteFile(paths.midi, sched, opts); err != nil {
			return services.Wrap(services.ErrConfiguration, "midi", "write", paths.midi, err)
		}
		result.MIDIPath = paths.midi
		logger.Info("midi written", logging.String("path", paths.midi))
	}
	return nil
}

// CaptionLayout sizes ASS captions for the configured video frame.
func CaptionLayout(cfg *config.Config) captions.Layout {
	v := cfg.Video
	return captions.Layout{
		Width:           v.Width,
		Height:          v.Height,
		ArtHeight:       v.ArtHeight,
		CaptionFontSize: v.CaptionFontSize,
		TitleFontSize:   v.TitleFontSize,
		MetaFontSize:    v.MetaFontSize,
	}
}

func (r *Runner) composeVideo(ctx context.Context, job Job, s *song.Song, caps []captions.Caption, header captions.Header, layout captions.Layout, paths resolvedPaths, result *Result) error {
	ctx, logger := r.stage(ctx, "video")
	if r.video == nil {
		return services.Wrap(services.ErrConfiguration, "video", "compose", "no video composer configured", nil)
	}

	assPath := paths.captions
	if !isASS(assPath) {
		assPath = filepath.Join(r.cfg.Paths.WorkDir, fmt.Sprintf("%s-%s.ass", OutputStem(s), result.RenderID[:8]))
		if err := captions.WriteFile(assPath, caps, header, layout, result.Alignment.TotalMs); err != nil {
			return services.Wrap(services.ErrConfiguration, "video", "write ass", assPath, err)
		}
		defer os.Remove(assPath)
	}

	cover := firstNonEmpty(job.CoverArtPath, s.CoverArtPath, r.cfg.Assets.CoverArt)
	v := r.cfg.Video
	videoJob := ffmpeg.VideoJob{
		AudioPath:    paths.audio,
		SubtitlePath: assPath,
		CoverArtPath: cover,
		OutputPath:   paths.video,
		Width:        v.Width,
		Height:       v.Height,
		FPS:          v.FPS,
		ArtHeight:    v.ArtHeight,
		Codec:        v.Codec,
		DurationMs:   result.Alignment.TotalMs,
	}
	sampler := logging.NewProgressSampler(10)
	progress := func(percent float64) {
		if sampler.ShouldLog(percent, "video") {
			logger.Info("video progress", logging.Float64("percent", float64(int(percent))))
		}
	}
	if err := r.video.ComposeVideo(ctx, videoJob, r.cfg.VideoTimeout(), progress); err != nil {
		return err
	}
	result.VideoPath = paths.video
	logger.Info("video written", logging.String("path", paths.video), logging.Bool("cover_art", cover != ""))
	return nil
}

func (r *Runner) record(ctx context.Context, job Job, result *Result, started time.Time, runErr error) {
	if r.history == nil {
		return
	}
	entry := history.Entry{
		RenderID:     result.RenderID,
		SourcePath:   job.SongPath,
		Status:       history.StatusSucceeded,
		AudioPath:    result.AudioPath,
		CaptionsPath: result.CaptionsPath,
		VideoPath:    result.VideoPath,
		MIDIPath:     result.MIDIPath,
		DurationMs:   result.Alignment.TotalMs,
		Measures:     result.Measures,
		Beats:        result.Beats,
		StartedAt:    started,
		FinishedAt:   started.Add(result.Elapsed),
	}
	if result.Song != nil {
		entry.SongTitle = result.Song.DisplayTitle()
		entry.SourcePath = result.Song.SourcePath
	}
	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.ErrorMessage = runErr.Error()
	}
	// Record even when the render was cancelled.
	if _, err := r.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Warn("failed to record render history", logging.Error(err))
	}
}

func (r *Runner) notify(ctx context.Context, result *Result, runErr error) {
	if r.notifier == nil {
		return
	}
	payload := notifications.Payload{}
	if result.Song != nil {
		payload["song"] = result.Song.DisplayTitle()
	}
	event := notifications.EventRenderCompleted
	if runErr != nil {
		event = notifications.EventRenderFailed
		payload["error"] = runErr.Error()
	} else {
		payload["output"] = firstNonEmpty(result.VideoPath, result.AudioPath)
		payload["duration"] = time.Duration(result.Alignment.TotalMs * float64(time.Millisecond)).Round(time.Millisecond).String()
	}
	if err := r.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		r.logger.Warn("failed to send render notification",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func classifyLoadError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return services.Wrap(services.ErrNotFound, "load", "read song", "", err)
	case errors.Is(err, song.ErrUnsupportedFormat):
		return services.Wrap(services.ErrValidation, "load", "read song", "", err)
	default:
		return services.Wrap(services.ErrValidation, "load", "parse song", "", err)
	}
}

// lockOutput holds an advisory lock beside the output so two renders never
// write the same file.
func lockOutput(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "ensure output dir", filepath.Dir(path), err)
	}
	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "lock", "acquire", fmt.Sprintf("another render is writing %s", path), nil)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}

func isASS(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".ass" || ext == ".ssa"
}

func isSRT(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".srt")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
