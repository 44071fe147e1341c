package captions

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// WriteSRT writes captions as SubRip cues.
func WriteSRT(w io.Writer, caps []Caption) error {
	if err := validate(caps); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, c := range caps {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n", i+1, formatSRTTimestamp(c.StartMs), formatSRTTimestamp(c.EndMs), c.Text)
	}
	return bw.Flush()
}

func formatSRTTimestamp(ms float64) string {
	h, m, s, milli := splitMillis(ms)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, milli)
}

func parseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

func srtBounds(content string) (cues int, first, last float64) {
	first = math.Inf(1)
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		if strings.TrimSpace(block) != "" {
			cues++
		}
	}
	for _, line := range strings.Split(content, "\n") {
		start, end, ok := strings.Cut(line, "-->")
		if !ok {
			continue
		}
		if seconds, err := parseSRTTimestamp(start); err == nil && seconds < first {
			first = seconds
		}
		if seconds, err := parseSRTTimestamp(end); err == nil && seconds > last {
			last = seconds
		}
	}
	if math.IsInf(first, 1) {
		first = 0
	}
	return cues, first, last
}

// ValidateSRTFile checks a written SRT file against the expected cue count and
// render duration. It returns the issues found; an empty slice means the file
// passed.
func ValidateSRTFile(path string, wantCues int, totalSeconds float64) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	cues, first, last := srtBounds(string(data))
	var issues []string
	if cues == 0 {
		return append(issues, "empty_subtitle_file")
	}
	if cues != wantCues {
		issues = append(issues, fmt.Sprintf("cue_count_mismatch: got=%d want=%d", cues, wantCues))
	}
	if first == 0 && last == 0 {
		issues = append(issues, "no_valid_timestamps")
	}
	if totalSeconds > 0 && math.Abs(last-totalSeconds) > 0.5 {
		issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", last-totalSeconds))
	}
	return issues
}
