package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output and working directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
}

// Assets points at the click samples and the fallback cover art.
type Assets struct {
	Downbeat string `toml:"downbeat"`
	Upbeat   string `toml:"upbeat"`
	Subbeat  string `toml:"subbeat"`
	CoverArt string `toml:"cover_art"`
}

// Audio contains the render format and mix levels.
type Audio struct {
	SampleRate  int     `toml:"sample_rate"`
	Channels    int     `toml:"channels"`
	ClickGainDB float64 `toml:"click_gain_db"`
	SongGainDB  float64 `toml:"song_gain_db"`
}

// Video contains caption video composition settings.
type Video struct {
	Enabled         bool   `toml:"enabled"`
	Width           int    `toml:"width"`
	Height          int    `toml:"height"`
	FPS             int    `toml:"fps"`
	ArtHeight       int    `toml:"art_height"`
	CaptionFontSize int    `toml:"caption_font_size"`
	TitleFontSize   int    `toml:"title_font_size"`
	MetaFontSize    int    `toml:"meta_font_size"`
	Codec           string `toml:"codec"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Tools names the external binaries and their time limits.
type Tools struct {
	FFmpegBinary          string `toml:"ffmpeg_binary"`
	FFprobeBinary         string `toml:"ffprobe_binary"`
	ConvertTimeoutSeconds int    `toml:"convert_timeout_seconds"`
}

// History contains render history settings.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Notifications configures ntfy delivery of render outcomes. An empty topic
// disables notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clicktrack.
//
// Configuration sections by subsystem:
//   - Paths: output, scratch and log directories
//   - Assets: click samples and default cover art
//   - Audio: render sample format and gain
//   - Video: caption video layout and encoder
//   - Tools: ffmpeg/ffprobe binaries and timeouts
//   - History: SQLite render log
//   - Notifications: ntfy topic for render outcomes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Assets        Assets        `toml:"assets"`
	Audio         Audio         `toml:"audio"`
	Video         Video         `toml:"video"`
	Tools         Tools         `toml:"tools"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config with every path expanded, the file it resolved to, and whether that
// file exists. A missing file yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath honours an explicit path even when it does not exist.
// Otherwise the user config wins over ./clicktrack.toml, and the user path is
// reported when neither exists.
func resolveConfigPath(explicit string) (string, bool, error) {
	if explicit != "" {
		expanded, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		if err != nil {
			return "", false, err
		}
		return expanded, exists, nil
	}

	userPath, err := ExpandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := ExpandPath(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the output, work and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ConvertTimeout bounds a single ffmpeg audio conversion.
func (c *Config) ConvertTimeout() time.Duration {
	return time.Duration(c.Tools.ConvertTimeoutSeconds) * time.Second
}

// NotificationTimeout bounds a single ntfy request.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// VideoTimeout bounds caption video composition.
func (c *Config) VideoTimeout() time.Duration {
	return time.Duration(c.Video.TimeoutSeconds) * time.Second
}

// OutputPath places name inside the output directory unless it is already a path.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(c.Paths.OutputDir, name)
}

// ExpandPath resolves a leading "~" to the home directory and returns an
// absolute, cleaned path. Empty input stays empty.
func ExpandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, creating its
// directory as needed.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
