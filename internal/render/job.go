package render

import (
	"path/filepath"
	"strings"
	"time"

	"clicktrack/internal/config"
	"clicktrack/internal/schedule"
	"clicktrack/internal/song"
	"clicktrack/internal/textutil"
)

// Job describes one render. Empty paths fall back to the song descriptor and
// then the config; output paths default to the output directory.
type Job struct {
	SongPath     string
	AudioPath    string
	CoverArtPath string
	OutputPath   string
	CaptionsPath string
	VideoPath    string
	MIDIPath     string
	// ClickOnly skips the song audio and writes the padded click track.
	ClickOnly bool
	// Video forces caption video composition even when disabled in config.
	Video bool
}

// Result reports what a render produced.
type Result struct {
	RenderID     string
	Song         *song.Song
	Alignment    schedule.Alignment
	Measures     int
	Beats        int
	Captions     int
	AudioPath    string
	CaptionsPath string
	VideoPath    string
	MIDIPath     string
	Elapsed      time.Duration
}

// OutputStem derives the base file name for a song's outputs.
func OutputStem(s *song.Song) string {
	return textutil.SanitizeToken(s.DisplayTitle())
}

// resolvedPaths are the absolute-or-relative output targets for a job.
type resolvedPaths struct {
	audio    string
	captions string
	video    string
	midi     string
}

func resolvePaths(cfg *config.Config, job Job, s *song.Song) resolvedPaths {
	stem := OutputStem(s)
	paths := resolvedPaths{
		audio:    job.OutputPath,
		captions: job.CaptionsPath,
		video:    job.VideoPath,
		midi:     job.MIDIPath,
	}
	if paths.audio == "" {
		paths.audio = cfg.OutputPath(stem + ".wav")
	}
	base := strings.TrimSuffix(paths.audio, filepath.Ext(paths.audio))
	if paths.captions == "" {
		paths.captions = base + ".srt"
	}
	if paths.video == "" && (job.Video || cfg.Video.Enabled) {
		paths.video = base + ".mp4"
	}
	return paths
}
