package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clicktrack/internal/config"
	"clicktrack/internal/media/audio"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Click samples are not written unless WithClickSamples is supplied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "logs", "history.db")
	cfgVal.Assets.Downbeat = filepath.Join(base, "sounds", "down.wav")
	cfgVal.Assets.Upbeat = filepath.Join(base, "sounds", "up.wav")
	cfgVal.Assets.Subbeat = filepath.Join(base, "sounds", "subbeat.wav")
	cfgVal.Audio.SampleRate = 1000
	cfgVal.Audio.Channels = 1
	cfgVal.Audio.ClickGainDB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithClickSamples writes short constant-amplitude click samples matching the
// configured render format. Down, up and sub use distinct amplitudes so tests
// can tell them apart in a rendered buffer.
func WithClickSamples() ConfigOption {
	return func(b *configBuilder) {
		format := audio.Format{SampleRate: b.cfg.Audio.SampleRate, Channels: b.cfg.Audio.Channels}
		WriteToneWAV(b.t, b.cfg.Assets.Downbeat, format, 20, DownAmplitude)
		WriteToneWAV(b.t, b.cfg.Assets.Upbeat, format, 20, UpAmplitude)
		WriteToneWAV(b.t, b.cfg.Assets.Subbeat, format, 20, SubAmplitude)
	}
}

// WithVideo toggles caption video composition.
func WithVideo(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Video.Enabled = enabled
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
