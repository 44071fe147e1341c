package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "exit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestMissingSkipsOptional(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Available: false},
		{Name: "libx264", Available: false, Optional: true},
		{Name: "FFprobe", Available: true},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0] != "FFmpeg" {
		t.Fatalf("unexpected missing list: %v", missing)
	}
}

func TestRequirementsVideoToggle(t *testing.T) {
	withVideo := Requirements("ffmpeg", "ffprobe", true)
	if withVideo[2].Optional {
		t.Fatal("encoder should be required when video is enabled")
	}
	withoutVideo := Requirements("ffmpeg", "ffprobe", false)
	if !withoutVideo[2].Optional || !withoutVideo[3].Optional {
		t.Fatal("video capabilities should be optional when video is disabled")
	}
	if withVideo[3].Capability != CapabilityFilter {
		t.Fatalf("subtitles requirement should probe filters, got %v", withVideo[3].Capability)
	}
}

func TestInspectProbesVersionAndEncoder(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeStub(t, dir, "ffmpeg", `case "$2" in
-version) echo "ffmpeg version 6.1.1 Copyright (c) 2000-2023" ;;
-encoders) printf ' V....D libx265 H.265\n A....D aac AAC\n' ;;
-filters) printf ' ... subtitles V->V Render text subtitles\n' ;;
esac
exit 0
`)
	statuses := Inspect(context.Background(), Requirements(ffmpeg, ffmpeg, true))
	if statuses[0].Version != "6.1.1" {
		t.Fatalf("expected version 6.1.1, got %q", statuses[0].Version)
	}
	if statuses[2].Available {
		t.Fatalf("expected libx264 to be reported missing, got %#v", statuses[2])
	}
	if statuses[2].Detail == "" {
		t.Fatal("expected detail for missing encoder")
	}
	if !statuses[3].Available || statuses[3].Name != "subtitles" {
		t.Fatalf("expected subtitles filter to be available, got %#v", statuses[3])
	}
	if statuses[3].Version != "" {
		t.Fatalf("capability probes should not report a version, got %q", statuses[3].Version)
	}
}

func TestHasFilter(t *testing.T) {
	ffmpeg := writeStub(t, t.TempDir(), "ffmpeg", `printf ' ... subtitles V->V Render text subtitles\n ... overlay VV->V Overlay\n'
exit 0
`)
	ok, err := HasFilter(context.Background(), ffmpeg, "subtitles")
	if err != nil || !ok {
		t.Fatalf("HasFilter(subtitles) = %v, %v", ok, err)
	}
	ok, err = HasFilter(context.Background(), ffmpeg, "drawtext")
	if err != nil || ok {
		t.Fatalf("HasFilter(drawtext) = %v, %v", ok, err)
	}
}

func TestParseVersion(t *testing.T) {
	if got := parseVersion("ffprobe version n7.0 Copyright\nbuilt with gcc"); got != "n7.0" {
		t.Fatalf("parseVersion = %q", got)
	}
	if got := parseVersion(""); got != "" {
		t.Fatalf("parseVersion(empty) = %q", got)
	}
}
