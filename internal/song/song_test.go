package song

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clicktrack/internal/schedule"
)

const tomlDescriptor = `
title = "Example"
album = "Album"
artist = "Artist"
initial_offset_ms = 2000
audio = "track.mp3"

[[time_signatures]]
numerator = 4
denominator = 4
bpm = 120.0
measures = 8

[[time_signatures]]
numerator = 6
denominator = 8
bpm = 120.0
measures = 2
offset = -200
sub_beat_multiplier = 3
sub_beats_as_upbeats = true
`

const jsonDescriptor = `{
  // hand-written descriptor
  "title": "Example",
  "artist": "Artist",
  "initial_offset_ms": -500,
  "time_signatures": [
    {"numerator": 7, "denominator": 8, "bpm": 180, "measures": 4, "offset": 10, "offset_ms": 20},
  ],
}`

const yamlDescriptor = `
title: Example
album: Album
time_signatures:
  - numerator: 3
    denominator: 4
    bpm: 96.5
    measures: 12
    sub_beat_multiplier: 3
`

func TestParseTOML(t *testing.T) {
	s, err := Parse([]byte(tomlDescriptor), FormatTOML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Title != "Example" || s.Album != "Album" || s.Artist != "Artist" {
		t.Fatalf("unexpected metadata: %+v", s)
	}
	if s.InitialOffsetMs != 2000 {
		t.Fatalf("initial offset = %d", s.InitialOffsetMs)
	}
	if len(s.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(s.Segments))
	}
	second := s.Segments[1]
	if second.OffsetMs != -200 || second.SubBeatMultiplier != 3 || !second.SubBeatsAsUpbeats {
		t.Fatalf("second segment = %+v", second)
	}
	if s.AudioPath != "track.mp3" {
		t.Fatalf("audio = %q", s.AudioPath)
	}
}

func TestParseRelaxedJSON(t *testing.T) {
	s, err := Parse([]byte(jsonDescriptor), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.InitialOffsetMs != -500 {
		t.Fatalf("initial offset = %d", s.InitialOffsetMs)
	}
	if got := s.Segments[0].OffsetMs; got != 20 {
		t.Fatalf("offset_ms should win over offset, got %d", got)
	}
	if s.Segments[0].BPM != 180 {
		t.Fatalf("bpm = %v", s.Segments[0].BPM)
	}
}

func TestParseYAML(t *testing.T) {
	s, err := Parse([]byte(yamlDescriptor), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	seg := s.Segments[0]
	if seg.BPM != 96.5 || seg.Measures != 12 || seg.SubBeatMultiplier != 3 || seg.SubBeatsAsUpbeats {
		t.Fatalf("segment = %+v", seg)
	}
	if _, err := s.Schedule(); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
}

func TestParseMissingRequiredField(t *testing.T) {
	cases := map[string]string{
		"bpm":       `{"time_signatures": [{"numerator": 4, "denominator": 4, "measures": 1}]}`,
		"numerator": `{"time_signatures": [{"denominator": 4, "bpm": 120, "measures": 1}]}`,
		"measures":  `{"time_signatures": [{"numerator": 4, "denominator": 4, "bpm": 120}]}`,
		"segments":  `{"title": "No segments"}`,
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc), FormatJSON); !errors.Is(err, ErrMissingRequiredField) {
			t.Fatalf("%s: err = %v, want ErrMissingRequiredField", name, err)
		}
	}
}

func TestParseRejectsNonPositiveSubBeatMultiplier(t *testing.T) {
	for _, multiplier := range []string{"0", "-3"} {
		doc := `{"time_signatures": [{"numerator": 6, "denominator": 8, "bpm": 120, "measures": 1,
			"sub_beat_multiplier": ` + multiplier + `, "sub_beats_as_upbeats": true}]}`
		_, err := Parse([]byte(doc), FormatJSON)
		if !errors.Is(err, schedule.ErrInvalidSegment) {
			t.Fatalf("multiplier %s: err = %v, want ErrInvalidSegment", multiplier, err)
		}
		if !strings.Contains(err.Error(), "sub_beat_multiplier") {
			t.Fatalf("multiplier %s: error %q does not name the field", multiplier, err)
		}
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Parse([]byte("title = "), FormatTOML); err == nil {
		t.Fatal("expected toml syntax error")
	}
	if _, err := Parse([]byte(`{"title": `), FormatJSON); err == nil {
		t.Fatal("expected json syntax error")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"song.toml":  FormatTOML,
		"song.JSON":  FormatJSON,
		"song.jsonc": FormatJSON,
		"song.json5": FormatJSON,
		"song.yml":   FormatYAML,
		"song.yaml":  FormatYAML,
	}
	for path, want := range cases {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Fatalf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatFromPath("song.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadResolvesRelativeAssets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "example.toml")
	doc := tomlDescriptor + "\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dir, "track.mp3"); s.AudioPath != want {
		t.Fatalf("audio = %q, want %q", s.AudioPath, want)
	}
	if s.CoverArtPath != "" {
		t.Fatalf("cover art = %q, want empty", s.CoverArtPath)
	}
	if s.SourcePath != path {
		t.Fatalf("source = %q", s.SourcePath)
	}
}

func TestDisplayTitleFallsBackToFileName(t *testing.T) {
	s := &Song{SourcePath: "/songs/my-song.yaml"}
	if got := s.DisplayTitle(); got != "my-song" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}
