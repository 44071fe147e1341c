// Package deps reports on the external binaries clicktrack shells out to.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Capability selects how Inspect verifies a requirement beyond PATH lookup.
type Capability int

const (
	// CapabilityBinary reports the binary's version.
	CapabilityBinary Capability = iota
	// CapabilityEncoder requires Name in "ffmpeg -encoders".
	CapabilityEncoder
	// CapabilityFilter requires Name in "ffmpeg -filters".
	CapabilityFilter
)

// Requirement defines an external dependency clicktrack relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Capability  Capability
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Requirements lists the binaries a render needs. ffmpeg is optional only when
// neither transcoding nor video composition can happen.
func Requirements(ffmpegBinary, ffprobeBinary string, videoEnabled bool) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegBinary,
			Description: "Decodes song audio and composes caption video",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobeBinary,
			Description: "Inspects song audio streams",
		},
		{
			Name:        "libx264",
			Command:     ffmpegBinary,
			Description: "Video encoder for caption video",
			Optional:    !videoEnabled,
			Capability:  CapabilityEncoder,
		},
		{
			Name:        "subtitles",
			Command:     ffmpegBinary,
			Description: "Burns captions into the video (libass)",
			Optional:    !videoEnabled,
			Capability:  CapabilityFilter,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the names of required dependencies that are unavailable.
func Missing(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}

const probeTimeout = 10 * time.Second

func runProbe(ctx context.Context, binary string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
	if err != nil {
		return "", err
	}
	return string(out), nil
}
