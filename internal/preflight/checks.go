package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"clicktrack/internal/media/audio"
)

type renderFormat struct {
	sampleRate int
	channels   int
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFile verifies that path is a readable regular file.
func CheckFile(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckClickSample verifies that a click sample decodes as PCM WAV. A sample
// in a different format still passes; it is converted with ffmpeg at render
// time.
func CheckClickSample(name, path string, want renderFormat) Result {
	if res := CheckFile(name, path); !res.Passed {
		return res
	}
	buf, err := audio.ReadWAV(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s (%d Hz, %d ch, %.0f ms)", path, buf.Format.SampleRate, buf.Format.Channels, buf.DurationMs())
	if buf.Format.SampleRate != want.sampleRate || buf.Format.Channels != want.channels {
		detail += "; converted at render"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}
