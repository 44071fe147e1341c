package song

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"clicktrack/internal/schedule"
)

var (
	// ErrMissingRequiredField is returned when a segment omits numerator,
	// denominator, bpm or measures.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrUnsupportedFormat is returned for descriptor files with an unknown
	// extension.
	ErrUnsupportedFormat = errors.New("unsupported song descriptor format")
)

// Format identifies a descriptor syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Song is a parsed descriptor. AudioPath and CoverArtPath are absolute when
// the descriptor was loaded from disk.
type Song struct {
	Title           string
	Album           string
	Artist          string
	InitialOffsetMs int
	Segments        []schedule.Segment
	AudioPath       string
	CoverArtPath    string
	SourcePath      string
}

type rawSong struct {
	Title           string       `json:"title" toml:"title" yaml:"title"`
	Album           string       `json:"album" toml:"album" yaml:"album"`
	Artist          string       `json:"artist" toml:"artist" yaml:"artist"`
	InitialOffsetMs int          `json:"initial_offset_ms" toml:"initial_offset_ms" yaml:"initial_offset_ms"`
	Audio           string       `json:"audio" toml:"audio" yaml:"audio"`
	CoverArt        string       `json:"cover_art" toml:"cover_art" yaml:"cover_art"`
	TimeSignatures  []rawSegment `json:"time_signatures" toml:"time_signatures" yaml:"time_signatures"`
}

type rawSegment struct {
	Numerator         *int     `json:"numerator" toml:"numerator" yaml:"numerator"`
	Denominator       *int     `json:"denominator" toml:"denominator" yaml:"denominator"`
	BPM               *float64 `json:"bpm" toml:"bpm" yaml:"bpm"`
	Measures          *int     `json:"measures" toml:"measures" yaml:"measures"`
	OffsetMs          *int     `json:"offset_ms" toml:"offset_ms" yaml:"offset_ms"`
	Offset            *int     `json:"offset" toml:"offset" yaml:"offset"`
	SubBeatMultiplier *int     `json:"sub_beat_multiplier" toml:"sub_beat_multiplier" yaml:"sub_beat_multiplier"`
	SubBeatsAsUpbeats bool     `json:"sub_beats_as_upbeats" toml:"sub_beats_as_upbeats" yaml:"sub_beats_as_upbeats"`
}

// FormatFromPath picks a descriptor syntax from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json", ".jsonc", ".json5":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and parses the descriptor at path. Relative audio and cover art
// paths are resolved against the descriptor's directory.
func Load(path string) (*Song, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read song descriptor: %w", err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	s.SourcePath = abs
	dir := filepath.Dir(abs)
	s.AudioPath = resolveRelative(dir, s.AudioPath)
	s.CoverArtPath = resolveRelative(dir, s.CoverArtPath)
	return s, nil
}

// Parse decodes a descriptor in the given format.
func Parse(data []byte, format Format) (*Song, error) {
	var raw rawSong
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case FormatJSON:
		standard, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		if err := json.Unmarshal(standard, &raw); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return raw.toSong()
}

func (r rawSong) toSong() (*Song, error) {
	s := &Song{
		Title:           strings.TrimSpace(r.Title),
		Album:           strings.TrimSpace(r.Album),
		Artist:          strings.TrimSpace(r.Artist),
		InitialOffsetMs: r.InitialOffsetMs,
		AudioPath:       strings.TrimSpace(r.Audio),
		CoverArtPath:    strings.TrimSpace(r.CoverArt),
	}
	if len(r.TimeSignatures) == 0 {
		return nil, fmt.Errorf("%w: time_signatures", ErrMissingRequiredField)
	}
	s.Segments = make([]schedule.Segment, 0, len(r.TimeSignatures))
	for i, raw := range r.TimeSignatures {
		seg, err := raw.toSegment()
		if err != nil {
			return nil, fmt.Errorf("time signature %d: %w", i+1, err)
		}
		s.Segments = append(s.Segments, seg)
	}
	return s, nil
}

func (r rawSegment) toSegment() (schedule.Segment, error) {
	var missing []string
	if r.Numerator == nil {
		missing = append(missing, "numerator")
	}
	if r.Denominator == nil {
		missing = append(missing, "denominator")
	}
	if r.BPM == nil {
		missing = append(missing, "bpm")
	}
	if r.Measures == nil {
		missing = append(missing, "measures")
	}
	if len(missing) > 0 {
		return schedule.Segment{}, fmt.Errorf("%w: %s", ErrMissingRequiredField, strings.Join(missing, ", "))
	}

	seg := schedule.Segment{
		Numerator:         *r.Numerator,
		Denominator:       *r.Denominator,
		BPM:               *r.BPM,
		Measures:          *r.Measures,
		SubBeatsAsUpbeats: r.SubBeatsAsUpbeats,
	}
	switch {
	case r.OffsetMs != nil:
		seg.OffsetMs = *r.OffsetMs
	case r.Offset != nil:
		seg.OffsetMs = *r.Offset
	}
	if r.SubBeatMultiplier != nil {
		if *r.SubBeatMultiplier <= 0 {
			return schedule.Segment{}, fmt.Errorf("%w: sub_beat_multiplier must be positive, got %d", schedule.ErrInvalidSegment, *r.SubBeatMultiplier)
		}
		seg.SubBeatMultiplier = *r.SubBeatMultiplier
	}
	return seg, nil
}

// Schedule decodes the song's segments.
func (s *Song) Schedule() (*schedule.Schedule, error) {
	return schedule.Build(s.Segments)
}

// DisplayTitle falls back to the descriptor file name when no title is set.
func (s *Song) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	if s.SourcePath != "" {
		base := filepath.Base(s.SourcePath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "Untitled"
}

func resolveRelative(dir, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}
