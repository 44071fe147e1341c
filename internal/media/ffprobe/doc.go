// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; helpers on Result expose the
// container duration, audio streams and song tags a render needs.
package ffprobe
