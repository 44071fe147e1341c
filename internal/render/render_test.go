package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"clicktrack/internal/config"
	"clicktrack/internal/history"
	"clicktrack/internal/logging"
	"clicktrack/internal/media/audio"
	"clicktrack/internal/media/ffmpeg"
	"clicktrack/internal/media/ffprobe"
	"clicktrack/internal/notifications"
	"clicktrack/internal/render"
	"clicktrack/internal/services"
	"clicktrack/internal/testsupport"
)

const commonTime = `title = "Blue in Green"
artist = "Miles Davis"
audio = "song.wav"
initial_offset_ms = %OFFSET%

[[time_signatures]]
numerator = 4
denominator = 4
bpm = 120
measures = 2
`

type fakeHistory struct {
	entries []history.Entry
}

func (f *fakeHistory) Record(_ context.Context, entry history.Entry) (int64, error) {
	f.entries = append(f.entries, entry)
	return int64(len(f.entries)), nil
}

type published struct {
	event   notifications.Event
	payload notifications.Payload
}

type fakeNotifier struct {
	events []published
}

func (f *fakeNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	f.events = append(f.events, published{event: event, payload: payload})
	return nil
}

type fakeConverter struct {
	t        *testing.T
	dir      string
	ms       int
	ordinals []int
	outputs  []string
}

func (f *fakeConverter) ToWAV(_ context.Context, input string, format audio.Format, ordinal int) (string, error) {
	f.ordinals = append(f.ordinals, ordinal)
	out := filepath.Join(f.dir, filepath.Base(input)+".converted.wav")
	testsupport.WriteToneWAV(f.t, out, format, f.ms, 0)
	f.outputs = append(f.outputs, out)
	return out, nil
}

type fakeVideo struct {
	jobs     []ffmpeg.VideoJob
	subtitle string
}

func (f *fakeVideo) ComposeVideo(_ context.Context, job ffmpeg.VideoJob, _ time.Duration, progress ffmpeg.ProgressFunc) error {
	f.jobs = append(f.jobs, job)
	data, err := os.ReadFile(job.SubtitlePath)
	if err != nil {
		return err
	}
	f.subtitle = string(data)
	if progress != nil {
		progress(50)
		progress(100)
	}
	return os.WriteFile(job.OutputPath, []byte("video"), 0o644)
}

func setup(t *testing.T, offset string, songMs int) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithClickSamples())
	format := audio.Format{SampleRate: cfg.Audio.SampleRate, Channels: cfg.Audio.Channels}
	dir := filepath.Join(testsupport.BaseDir(cfg), "songs")
	body := strings.ReplaceAll(commonTime, "%OFFSET%", offset)
	return cfg, testsupport.WriteSong(t, dir, "blue.toml", body, format, songMs)
}

func readOutput(t *testing.T, path string) *audio.Buffer {
	t.Helper()
	buf, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV(%s): %v", path, err)
	}
	return buf
}

func TestRunMixesSongAndClick(t *testing.T) {
	cfg, songPath := setup(t, "500", 5000)
	hist := &fakeHistory{}
	runner := render.NewRunner(cfg, logging.NewNop(), render.WithHistory(hist))

	result, err := runner.Run(context.Background(), render.Job{SongPath: songPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantAudio := filepath.Join(cfg.Paths.OutputDir, "blue_in_green.wav")
	if result.AudioPath != wantAudio {
		t.Fatalf("audio path = %q, want %q", result.AudioPath, wantAudio)
	}
	if result.Alignment.ClickPadMs != 500 || result.Alignment.TotalMs != 5000 {
		t.Fatalf("unexpected alignment %+v", result.Alignment)
	}
	if result.Measures != 2 || result.Beats != 8 || result.Captions != 2 {
		t.Fatalf("unexpected counts %+v", result)
	}

	out := readOutput(t, wantAudio)
	if out.Frames() != 5000 {
		t.Fatalf("frames = %d, want 5000", out.Frames())
	}
	if out.Samples[499] != 0 {
		t.Fatal("click should not start before the initial offset")
	}
	if out.Samples[500] != testsupport.DownAmplitude {
		t.Fatalf("downbeat at 500ms = %d", out.Samples[500])
	}
	if out.Samples[1000] != testsupport.UpAmplitude {
		t.Fatalf("upbeat at 1000ms = %d", out.Samples[1000])
	}

	srt, err := os.ReadFile(result.CaptionsPath)
	if err != nil {
		t.Fatalf("read captions: %v", err)
	}
	if !strings.HasSuffix(result.CaptionsPath, "blue_in_green.srt") {
		t.Fatalf("unexpected captions path %q", result.CaptionsPath)
	}
	if !strings.Contains(string(srt), "00:00:00,500 --> 00:00:02,500") {
		t.Fatalf("first caption should start at the click origin:\n%s", srt)
	}
	if !strings.Contains(string(srt), "00:00:02,500 --> 00:00:05,000") {
		t.Fatalf("last caption should stretch to the render end:\n%s", srt)
	}

	if len(hist.entries) != 1 || hist.entries[0].Status != history.StatusSucceeded {
		t.Fatalf("expected one successful history entry, got %+v", hist.entries)
	}
	if hist.entries[0].RenderID != result.RenderID || hist.entries[0].SongTitle != "Blue in Green" {
		t.Fatalf("unexpected history entry %+v", hist.entries[0])
	}
	if _, err := os.Stat(wantAudio + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("lock file should be removed, got %v", err)
	}
}

func TestRunClickOnlyNegativeOffset(t *testing.T) {
	cfg, songPath := setup(t, "-1000", 100)
	runner := render.NewRunner(cfg, logging.NewNop())

	result, err := runner.Run(context.Background(), render.Job{SongPath: songPath, ClickOnly: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Alignment.ClickPadMs != 0 || result.Alignment.TotalMs != 5000 {
		t.Fatalf("unexpected alignment %+v", result.Alignment)
	}
	out := readOutput(t, result.AudioPath)
	if out.Frames() != 5000 {
		t.Fatalf("frames = %d, want 5000", out.Frames())
	}
	if out.Samples[0] != testsupport.DownAmplitude {
		t.Fatalf("click-only track should start at 0, got %d", out.Samples[0])
	}
	if out.Samples[4500] != 0 {
		t.Fatal("tail should be silent")
	}
}

func TestRunConvertsNonWAVSong(t *testing.T) {
	cfg, songPath := setup(t, "0", 100)
	dir := filepath.Dir(songPath)
	mp3 := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(mp3, []byte("not really mp3"), 0o644); err != nil {
		t.Fatalf("write mp3: %v", err)
	}
	probe := render.ProbeFunc(func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "mjpeg", Disposition: map[string]int{"attached_pic": 1}},
			{Index: 1, CodecType: "audio", CodecName: "mp3", Channels: 2, SampleRate: "44100"},
		}}, nil
	})
	converter := &fakeConverter{t: t, dir: t.TempDir(), ms: 3000}
	runner := render.NewRunner(cfg, logging.NewNop(), render.WithProber(probe), render.WithConverter(converter))

	result, err := runner.Run(context.Background(), render.Job{SongPath: songPath, AudioPath: mp3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(converter.ordinals) != 1 || converter.ordinals[0] != 0 {
		t.Fatalf("expected one conversion of audio ordinal 0, got %v", converter.ordinals)
	}
	if _, err := os.Stat(converter.outputs[0]); !os.IsNotExist(err) {
		t.Fatalf("converted temp file should be removed, got %v", err)
	}
	// Click track (4000ms) outlasts the 3000ms song and is not truncated.
	if result.Alignment.TotalMs != 4000 {
		t.Fatalf("total = %v, want 4000", result.Alignment.TotalMs)
	}
}

func TestRunComposesVideoAndMIDI(t *testing.T) {
	cfg, songPath := setup(t, "0", 4000)
	video := &fakeVideo{}
	runner := render.NewRunner(cfg, logging.NewNop(), render.WithVideoComposer(video))
	midiPath := filepath.Join(t.TempDir(), "click.mid")

	result, err := runner.Run(context.Background(), render.Job{SongPath: songPath, Video: true, MIDIPath: midiPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(video.jobs) != 1 {
		t.Fatalf("expected one video job, got %d", len(video.jobs))
	}
	job := video.jobs[0]
	if job.AudioPath != result.AudioPath || job.DurationMs != 4000 || job.Width != 1280 {
		t.Fatalf("unexpected video job %+v", job)
	}
	if !strings.HasSuffix(job.OutputPath, "blue_in_green.mp4") || result.VideoPath != job.OutputPath {
		t.Fatalf("unexpected video path %q", job.OutputPath)
	}
	if !strings.Contains(video.subtitle, "[Events]") || !strings.Contains(video.subtitle, "Blue in Green") {
		t.Fatalf("video should receive ASS captions with the title, got:\n%s", video.subtitle)
	}
	if _, err := os.Stat(job.SubtitlePath); !os.IsNotExist(err) {
		t.Fatalf("temporary ASS file should be removed, got %v", err)
	}
	if result.MIDIPath != midiPath {
		t.Fatalf("unexpected midi path %q", result.MIDIPath)
	}
	if info, err := os.Stat(midiPath); err != nil || info.Size() == 0 {
		t.Fatalf("expected midi file, got %v", err)
	}
}

func TestRunRejectsInvalidDescriptor(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithClickSamples())
	dir := t.TempDir()
	songPath := filepath.Join(dir, "bad.toml")
	body := "title = \"Broken\"\n[[time_signatures]]\nnumerator = 4\ndenominator = 4\nmeasures = 2\n"
	if err := os.WriteFile(songPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write song: %v", err)
	}
	hist := &fakeHistory{}
	runner := render.NewRunner(cfg, logging.NewNop(), render.WithHistory(hist))

	_, err := runner.Run(context.Background(), render.Job{SongPath: songPath})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if entries, _ := os.ReadDir(cfg.Paths.OutputDir); len(entries) != 0 {
		t.Fatalf("no outputs expected, found %d", len(entries))
	}
	if len(hist.entries) != 1 || hist.entries[0].Status != history.StatusFailed || hist.entries[0].ErrorMessage == "" {
		t.Fatalf("expected failed history entry, got %+v", hist.entries)
	}
}

func TestRunMissingSongFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := render.NewRunner(cfg, logging.NewNop())
	_, err := runner.Run(context.Background(), render.Job{SongPath: filepath.Join(t.TempDir(), "missing.toml")})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRunMissingSubBeatSample(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithClickSamples())
	if err := os.Remove(cfg.Assets.Subbeat); err != nil {
		t.Fatalf("remove subbeat: %v", err)
	}
	format := audio.Format{SampleRate: cfg.Audio.SampleRate, Channels: cfg.Audio.Channels}
	body := "title = \"Waltz\"\naudio = \"song.wav\"\n[[time_signatures]]\nnumerator = 6\ndenominator = 8\nbpm = 180\nmeasures = 1\nsub_beat_multiplier = 3\n"
	songPath := testsupport.WriteSong(t, t.TempDir(), "waltz.toml", body, format, 1000)

	runner := render.NewRunner(cfg, logging.NewNop())
	_, err := runner.Run(context.Background(), render.Job{SongPath: songPath})
	if !errors.Is(err, services.ErrNotFound) || !strings.Contains(err.Error(), "subbeat") {
		t.Fatalf("expected missing subbeat asset, got %v", err)
	}
}

func TestRunRefusesConcurrentOutput(t *testing.T) {
	cfg, songPath := setup(t, "0", 4000)
	output := filepath.Join(cfg.Paths.OutputDir, "blue_in_green.wav")
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(output + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock: %v %v", ok, err)
	}
	defer held.Unlock()

	runner := render.NewRunner(cfg, logging.NewNop())
	_, err = runner.Run(context.Background(), render.Job{SongPath: songPath})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient lock error, got %v", err)
	}
}

func TestRunRequiresAudioUnlessClickOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithClickSamples())
	songPath := filepath.Join(t.TempDir(), "silent.yaml")
	body := "title: Silent\ntime_signatures:\n  - numerator: 3\n    denominator: 4\n    bpm: 90\n    measures: 1\n"
	if err := os.WriteFile(songPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write song: %v", err)
	}
	runner := render.NewRunner(cfg, logging.NewNop())
	if _, err := runner.Run(context.Background(), render.Job{SongPath: songPath}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := runner.Run(context.Background(), render.Job{SongPath: songPath, ClickOnly: true}); err != nil {
		t.Fatalf("click-only render should succeed: %v", err)
	}
}

func TestRunPublishesOutcome(t *testing.T) {
	cfg, songPath := setup(t, "0", 3000)
	notifier := &fakeNotifier{}
	runner := render.NewRunner(cfg, logging.NewNop(), render.WithNotifier(notifier))

	result, err := runner.Run(context.Background(), render.Job{SongPath: songPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0].event != notifications.EventRenderCompleted {
		t.Fatalf("expected one completion event, got %+v", notifier.events)
	}
	payload := notifier.events[0].payload
	if payload["song"] != "Blue in Green" || payload["output"] != result.AudioPath || payload["duration"] != "4s" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	_, err = runner.Run(context.Background(), render.Job{SongPath: filepath.Join(t.TempDir(), "missing.toml")})
	if err == nil {
		t.Fatal("expected missing song error")
	}
	if len(notifier.events) != 2 || notifier.events[1].event != notifications.EventRenderFailed {
		t.Fatalf("expected a failure event, got %+v", notifier.events)
	}
	if notifier.events[1].payload["error"] == "" {
		t.Fatal("failure event should carry the error")
	}
}
