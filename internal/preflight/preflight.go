package preflight

import (
	"path/filepath"

	"clicktrack/internal/config"
)

// Result reports the outcome of a single preflight check. An optional check
// that fails is a warning rather than a blocker.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	format := renderFormat{sampleRate: cfg.Audio.SampleRate, channels: cfg.Audio.Channels}
	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckClickSample("Downbeat sample", cfg.Assets.Downbeat, format),
		CheckClickSample("Upbeat sample", cfg.Assets.Upbeat, format),
	}

	// Only songs with unpromoted subdivisions need it.
	sub := CheckClickSample("Subbeat sample", cfg.Assets.Subbeat, format)
	sub.Optional = true
	results = append(results, sub)

	if cfg.Assets.CoverArt != "" {
		cover := CheckFile("Cover art", cfg.Assets.CoverArt)
		cover.Optional = true
		results = append(results, cover)
	}

	if cfg.History.Enabled {
		if dir := filepath.Dir(cfg.History.Path); dir != cfg.Paths.LogDir {
			results = append(results, CheckDirectoryAccess("History directory", dir))
		}
	}

	return results
}

// Failed returns the names of required checks that did not pass.
func Failed(results []Result) []string {
	var failed []string
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r.Name)
		}
	}
	return failed
}
