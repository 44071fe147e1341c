package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds: must not be negative")
	}
	if topic := c.Notifications.NtfyTopic; topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic: must be an http(s) URL, got %q", topic)
	}
	return c.validateLogging()
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate: must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("audio.channels: must be 1 or 2, got %d", c.Audio.Channels)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("video.width/video.height: must be positive, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return fmt.Errorf("video.width/video.height: must be even for yuv420p, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video.fps: must be positive, got %d", c.Video.FPS)
	}
	if c.Video.ArtHeight <= 0 || c.Video.ArtHeight > c.Video.Height {
		return fmt.Errorf("video.art_height: must be between 1 and %d, got %d", c.Video.Height, c.Video.ArtHeight)
	}
	for key, size := range map[string]int{
		"video.caption_font_size": c.Video.CaptionFontSize,
		"video.title_font_size":   c.Video.TitleFontSize,
		"video.meta_font_size":    c.Video.MetaFontSize,
	} {
		if size <= 0 {
			return fmt.Errorf("%s: must be positive, got %d", key, size)
		}
	}
	if c.Video.TimeoutSeconds < 0 {
		return errors.New("video.timeout_seconds: must not be negative")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.ConvertTimeoutSeconds < 0 {
		return errors.New("tools.convert_timeout_seconds: must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
