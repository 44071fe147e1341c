package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"clicktrack/internal/config"
	"clicktrack/internal/media/audio"
	"clicktrack/internal/testsupport"
)

const commonTimeSong = `title = "Blue in Green"
artist = "Miles Davis"
album = "Kind of Blue"
audio = "song.wav"

[[time_signatures]]
numerator = 4
denominator = 4
bpm = 120
measures = 2
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("CLICKTRACK_OUTPUT_DIR", "")
	t.Setenv("CLICKTRACK_LOG_LEVEL", "")
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func (e *cliTestEnv) format() audio.Format {
	return audio.Format{SampleRate: e.cfg.Audio.SampleRate, Channels: e.cfg.Audio.Channels}
}

// writeSong places a descriptor and a silent song.wav under the env's base dir.
func (e *cliTestEnv) writeSong(t *testing.T, body string, songMs int) string {
	t.Helper()
	dir := filepath.Join(e.baseDir, "songs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir songs: %v", err)
	}
	return testsupport.WriteSong(t, dir, "song.toml", body, e.format(), songMs)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
