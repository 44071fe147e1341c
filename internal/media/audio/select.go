package audio

import (
	"strconv"
	"strings"

	"clicktrack/internal/media/ffprobe"
)

// Selection identifies the audio stream of a song source to mix under the
// click track.
type Selection struct {
	Primary ffprobe.Stream
	// Ordinal is the stream's position among audio streams, as used by
	// ffmpeg's "0:a:N" stream specifier. -1 when the source has no audio.
	Ordinal int
}

// Found reports whether an audio stream was selected.
func (s Selection) Found() bool {
	return s.Ordinal >= 0
}

// Label returns a human-readable summary of the selected stream.
func (s Selection) Label() string {
	if !s.Found() {
		return ""
	}
	return formatStreamSummary(s.Primary)
}

// Select picks the song's audio stream. Streams flagged default win, then
// lossless sources, then higher channel counts; earlier streams break ties.
// Commentary and descriptive tracks are ranked last.
func Select(streams []ffprobe.Stream) Selection {
	candidates := buildCandidates(streams)
	if len(candidates) == 0 {
		return Selection{Ordinal: -1}
	}
	best := candidates[0]
	bestScore := scorePrimary(best)
	for _, cand := range candidates[1:] {
		if score := scorePrimary(cand); score > bestScore {
			best = cand
			bestScore = score
		}
	}
	return Selection{Primary: best.stream, Ordinal: best.order}
}

type candidate struct {
	stream         ffprobe.Stream
	order          int
	title          string
	isLossless     bool
	isCommentary   bool
	channels       int
	defaultFlagged bool
}

func scorePrimary(cand candidate) float64 {
	score := 0.0
	if cand.defaultFlagged {
		score += 1000
	}
	if cand.isCommentary {
		score -= 2000
	}
	if cand.isLossless {
		score += 100
	} else {
		score += 50
	}
	score += float64(min(cand.channels, 8)) * 5
	score -= float64(cand.order) * 0.1
	return score
}

func buildCandidates(streams []ffprobe.Stream) []candidate {
	result := make([]candidate, 0, len(streams))
	order := 0
	for _, stream := range streams {
		if !stream.IsAudio() {
			continue
		}
		cand := candidate{
			stream:         stream,
			order:          order,
			title:          normalizeTitle(stream.Tags),
			channels:       channelCount(stream),
			defaultFlagged: stream.Disposition["default"] == 1,
		}
		cand.isLossless = detectLossless(stream)
		cand.isCommentary = stream.Disposition["comment"] == 1 ||
			stream.Disposition["visual_impaired"] == 1 ||
			strings.Contains(cand.title, "commentary")
		result = append(result, cand)
		order++
	}
	return result
}

func normalizeTitle(tags map[string]string) string {
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		if value, ok := tags[key]; ok {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}

func channelCount(stream ffprobe.Stream) int {
	if stream.Channels > 0 {
		return stream.Channels
	}
	layout := strings.ToLower(strings.TrimSpace(stream.ChannelLayout))
	switch {
	case layout == "mono":
		return 1
	case layout == "stereo":
		return 2
	case strings.Contains(layout, "."):
		total := 0
		for _, part := range strings.Split(layout, ".") {
			part = strings.Trim(part, "abcdefghijklmnopqrstuvwxyz ()")
			if n, err := strconv.Atoi(part); err == nil {
				total += n
			}
		}
		return total
	}
	return 0
}

func detectLossless(stream ffprobe.Stream) bool {
	name := strings.ToLower(stream.CodecName)
	switch name {
	case "flac", "alac", "wavpack", "ape", "tta", "truehd", "mlp":
		return true
	}
	if strings.HasPrefix(name, "pcm_") {
		return true
	}
	return strings.Contains(strings.ToLower(stream.CodecLong), "lossless")
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	codec := stream.CodecLong
	if codec == "" {
		codec = stream.CodecName
	}
	if codec != "" {
		parts = append(parts, codec)
	}
	if rate := stream.SampleRateHz(); rate > 0 {
		parts = append(parts, strconv.Itoa(rate)+"Hz")
	}
	if channels := channelCount(stream); channels > 0 {
		parts = append(parts, strconv.Itoa(channels)+"ch")
	}
	if title := strings.TrimSpace(stream.Tags["title"]); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
