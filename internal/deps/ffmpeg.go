package deps

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// Inspect augments CheckBinaries with version and capability probes.
func Inspect(ctx context.Context, requirements []Requirement) []Status {
	statuses := CheckBinaries(requirements)
	for i := range statuses {
		status := &statuses[i]
		if !status.Available {
			continue
		}
		var (
			ok   bool
			err  error
			list string
		)
		switch requirements[i].Capability {
		case CapabilityEncoder:
			ok, err = HasEncoder(ctx, status.Command, status.Name)
			list = "encoders"
		case CapabilityFilter:
			ok, err = HasFilter(ctx, status.Command, status.Name)
			list = "filters"
		default:
			if version, err := Version(ctx, status.Command); err == nil {
				status.Version = version
			}
			continue
		}
		switch {
		case err != nil:
			status.Available = false
			status.Detail = fmt.Sprintf("list %s: %v", list, err)
		case !ok:
			status.Available = false
			status.Detail = fmt.Sprintf("%s built without %s", status.Command, status.Name)
		}
	}
	return statuses
}

// Version returns the version token from "<binary> -version", e.g. "6.1.1".
func Version(ctx context.Context, binary string) (string, error) {
	out, err := runProbe(ctx, binary, "-hide_banner", "-version")
	if err != nil {
		return "", err
	}
	return parseVersion(out), nil
}

func parseVersion(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	fields := strings.Fields(line)
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

// HasEncoder reports whether ffmpeg lists the named encoder.
func HasEncoder(ctx context.Context, binary, encoder string) (bool, error) {
	out, err := runProbe(ctx, binary, "-hide_banner", "-encoders")
	if err != nil {
		return false, err
	}
	return listsName(out, encoder), nil
}

// HasFilter reports whether ffmpeg lists the named filter.
func HasFilter(ctx context.Context, binary, filter string) (bool, error) {
	out, err := runProbe(ctx, binary, "-hide_banner", "-filters")
	if err != nil {
		return false, err
	}
	return listsName(out, filter), nil
}

// listsName scans ffmpeg's "-encoders"/"-filters" table where the name is the
// second column after a flags column.
func listsName(out, name string) bool {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
