package audio

import (
	"testing"

	"clicktrack/internal/media/ffprobe"
)

func TestSelectPrefersDefaultStream(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 0, CodecType: "video", Disposition: map[string]int{"attached_pic": 1}},
		{Index: 1, CodecType: "audio", CodecName: "flac", Channels: 6},
		{Index: 2, CodecType: "audio", CodecName: "aac", Channels: 2, Disposition: map[string]int{"default": 1}},
	}
	sel := Select(streams)
	if !sel.Found() || sel.Primary.Index != 2 || sel.Ordinal != 1 {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestSelectPrefersLosslessThenChannels(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 0, CodecType: "audio", CodecName: "mp3", Channels: 2},
		{Index: 1, CodecType: "audio", CodecName: "pcm_s24le", Channels: 2},
		{Index: 2, CodecType: "audio", CodecName: "alac", ChannelLayout: "5.1(side)"},
	}
	sel := Select(streams)
	if sel.Ordinal != 2 {
		t.Fatalf("expected 5.1 lossless stream, got ordinal %d", sel.Ordinal)
	}
}

func TestSelectSkipsCommentary(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 0, CodecType: "audio", CodecName: "flac", Channels: 2, Tags: map[string]string{"title": "Director Commentary"}, Disposition: map[string]int{"default": 1}},
		{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 2},
	}
	if sel := Select(streams); sel.Ordinal != 1 {
		t.Fatalf("expected commentary to be skipped, got ordinal %d", sel.Ordinal)
	}
}

func TestSelectWithoutAudio(t *testing.T) {
	sel := Select([]ffprobe.Stream{{Index: 0, CodecType: "video"}})
	if sel.Found() || sel.Label() != "" {
		t.Fatalf("expected no selection, got %+v", sel)
	}
}

func TestSelectionLabel(t *testing.T) {
	sel := Select([]ffprobe.Stream{{Index: 0, CodecType: "audio", CodecName: "flac", SampleRate: "48000", Channels: 2, Tags: map[string]string{"title": "Main"}}})
	if got := sel.Label(); got != "flac | 48000Hz | 2ch | Main" {
		t.Fatalf("Label = %q", got)
	}
}
