package config

const (
	defaultConfigPath            = "~/.config/clicktrack/config.toml"
	projectConfigName            = "clicktrack.toml"
	defaultOutputDir             = "~/Music/clicktrack"
	defaultWorkDir               = "~/.cache/clicktrack/work"
	defaultLogDir                = "~/.local/share/clicktrack/logs"
	defaultSoundsDir             = "~/.config/clicktrack/sounds"
	defaultHistoryFile           = "history.db"
	defaultSampleRate            = 44100
	defaultChannels              = 2
	defaultClickGainDB           = 10
	defaultVideoWidth            = 1280
	defaultVideoHeight           = 720
	defaultVideoFPS              = 24
	defaultArtHeight             = 360
	defaultCaptionFontSize       = 24
	defaultTitleFontSize         = 40
	defaultMetaFontSize          = 30
	defaultVideoCodec            = "libx264"
	defaultVideoTimeoutSeconds   = 1800
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultConvertTimeoutSeconds = 120
	defaultNtfyTimeoutSeconds    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
		},
		Assets: Assets{
			Downbeat: defaultSoundsDir + "/down.wav",
			Upbeat:   defaultSoundsDir + "/up.wav",
			Subbeat:  defaultSoundsDir + "/subbeat.wav",
		},
		Audio: Audio{
			SampleRate:  defaultSampleRate,
			Channels:    defaultChannels,
			ClickGainDB: defaultClickGainDB,
		},
		Video: Video{
			Width:           defaultVideoWidth,
			Height:          defaultVideoHeight,
			FPS:             defaultVideoFPS,
			ArtHeight:       defaultArtHeight,
			CaptionFontSize: defaultCaptionFontSize,
			TitleFontSize:   defaultTitleFontSize,
			MetaFontSize:    defaultMetaFontSize,
			Codec:           defaultVideoCodec,
			TimeoutSeconds:  defaultVideoTimeoutSeconds,
		},
		Tools: Tools{
			FFmpegBinary:          defaultFFmpegBinary,
			FFprobeBinary:         defaultFFprobeBinary,
			ConvertTimeoutSeconds: defaultConvertTimeoutSeconds,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
