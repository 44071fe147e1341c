package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"clicktrack/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "clicktrack", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, "Music", "clicktrack"); cfg.Paths.OutputDir != want {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, want)
	}
	if want := filepath.Join(tempHome, ".config", "clicktrack", "sounds", "down.wav"); cfg.Assets.Downbeat != want {
		t.Fatalf("unexpected downbeat asset: %q", cfg.Assets.Downbeat)
	}
	if want := filepath.Join(cfg.Paths.LogDir, "history.db"); cfg.History.Path != want {
		t.Fatalf("unexpected history path: got %q want %q", cfg.History.Path, want)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.Channels != 2 || cfg.Audio.ClickGainDB != 10 {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Video.Enabled {
		t.Fatal("expected video disabled by default")
	}
	if cfg.Video.Width != 1280 || cfg.Video.Height != 720 || cfg.Video.FPS != 24 || cfg.Video.ArtHeight != 360 {
		t.Fatalf("unexpected video defaults: %+v", cfg.Video)
	}
	if cfg.ConvertTimeout() != 2*time.Minute {
		t.Fatalf("unexpected convert timeout: %v", cfg.ConvertTimeout())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadProjectConfigFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	t.Chdir(project)
	if err := os.WriteFile("clicktrack.toml", []byte("[audio]\nsample_rate = 48000\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "clicktrack.toml" {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Fatalf("expected sample rate override, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 2 {
		t.Fatalf("expected untouched defaults to survive, got %d channels", cfg.Audio.Channels)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "custom.toml")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Video struct {
			Enabled bool `toml:"enabled"`
			FPS     int  `toml:"fps"`
		} `toml:"video"`
		History struct {
			Path string `toml:"path"`
		} `toml:"history"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "renders")
	custom.Video.Enabled = true
	custom.Video.FPS = 30
	custom.History.Path = filepath.Join(tempDir, "renders.db")
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.OutputDir != custom.Paths.OutputDir {
		t.Fatalf("expected output dir override, got %q", cfg.Paths.OutputDir)
	}
	if !cfg.Video.Enabled || cfg.Video.FPS != 30 {
		t.Fatalf("expected video overrides, got %+v", cfg.Video)
	}
	if cfg.History.Path != custom.History.Path {
		t.Fatalf("expected history path override, got %q", cfg.History.Path)
	}
	if got := cfg.OutputPath("song.wav"); got != filepath.Join(custom.Paths.OutputDir, "song.wav") {
		t.Fatalf("OutputPath = %q", got)
	}
	if got := cfg.OutputPath("/tmp/elsewhere.wav"); got != "/tmp/elsewhere.wav" {
		t.Fatalf("OutputPath should keep explicit paths, got %q", got)
	}
}

func TestLoadMissingCustomPathUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Tools.FFmpegBinary != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary %q", cfg.Tools.FFmpegBinary)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out := t.TempDir()
	t.Setenv("CLICKTRACK_OUTPUT_DIR", out)
	t.Setenv("CLICKTRACK_LOG_LEVEL", " DEBUG ")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\noutput_dir = \"/nowhere\"\n[logging]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != out {
		t.Fatalf("expected output dir from env, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected log level from env, got %q", cfg.Logging.Level)
	}
}

func TestValidationErrorsNameTheKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"[audio]\nsample_rate = 0\n":                   "audio.sample_rate",
		"[audio]\nchannels = 6\n":                      "audio.channels",
		"[video]\nwidth = 1279\n":                      "video.width",
		"[video]\nart_height = 900\n":                  "video.art_height",
		"[video]\nfps = -1\n":                          "video.fps",
		"[logging]\nlevel = \"loud\"\n":                "logging.level",
		"[notifications]\nntfy_topic = \"my-topic\"\n": "notifications.ntfy_topic",
	}
	for body, key := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		_, _, _, err := config.Load(path)
		if err == nil {
			t.Fatalf("expected validation error for %q", body)
		}
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected error to mention %q, got %v", key, err)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[audio]\nsample_rat = 44100\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[assets]") {
		t.Fatalf("sample config missing assets section:\n%s", contents)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists || cfg.Video.Codec != "libx264" {
		t.Fatalf("unexpected sample load: exists=%v codec=%q", exists, cfg.Video.Codec)
	}
}
