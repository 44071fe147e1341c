package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAssets(); err != nil {
		return err
	}
	c.normalizeTools()
	c.Video.Codec = strings.TrimSpace(c.Video.Codec)
	if c.Video.Codec == "" {
		c.Video.Codec = defaultVideoCodec
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CLICKTRACK_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = ExpandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = ExpandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAssets() error {
	var err error
	if c.Assets.Downbeat, err = ExpandPath(strings.TrimSpace(c.Assets.Downbeat)); err != nil {
		return fmt.Errorf("assets.downbeat: %w", err)
	}
	if c.Assets.Upbeat, err = ExpandPath(strings.TrimSpace(c.Assets.Upbeat)); err != nil {
		return fmt.Errorf("assets.upbeat: %w", err)
	}
	if c.Assets.Subbeat, err = ExpandPath(strings.TrimSpace(c.Assets.Subbeat)); err != nil {
		return fmt.Errorf("assets.subbeat: %w", err)
	}
	if c.Assets.CoverArt, err = ExpandPath(strings.TrimSpace(c.Assets.CoverArt)); err != nil {
		return fmt.Errorf("assets.cover_art: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	if c.Tools.FFmpegBinary == "" {
		c.Tools.FFmpegBinary = defaultFFmpegBinary
	}
	c.Tools.FFprobeBinary = strings.TrimSpace(c.Tools.FFprobeBinary)
	if c.Tools.FFprobeBinary == "" {
		c.Tools.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Tools.ConvertTimeoutSeconds == 0 {
		c.Tools.ConvertTimeoutSeconds = defaultConvertTimeoutSeconds
	}
	if c.Video.TimeoutSeconds == 0 {
		c.Video.TimeoutSeconds = defaultVideoTimeoutSeconds
	}
}

func (c *Config) normalizeHistory() error {
	path := strings.TrimSpace(c.History.Path)
	if path == "" {
		path = filepath.Join(c.Paths.LogDir, defaultHistoryFile)
	}
	var err error
	if c.History.Path, err = ExpandPath(path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("CLICKTRACK_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
