package schedule

import "math"

// Alignment describes how the click track and the song audio are padded so
// both run for TotalMs.
type Alignment struct {
	// ClickPadMs is leading silence before the click track.
	ClickPadMs float64
	// SongPadMs is leading silence before the song audio.
	SongPadMs float64
	// ClickTailMs extends the padded click track to the padded song length.
	ClickTailMs float64
	// SongTailMs extends the padded song to the padded click length.
	SongTailMs float64
	// TotalMs is the final render duration.
	TotalMs float64
}

// Align reconciles a click track of clickMs against a song of songMs. A
// positive initial offset delays the click track, a negative one delays the
// song. The click track is extended to the song's length but never truncated.
func Align(songMs, clickMs float64, initialOffsetMs int) Alignment {
	var a Alignment
	switch {
	case initialOffsetMs > 0:
		a.ClickPadMs = float64(initialOffsetMs)
	case initialOffsetMs < 0:
		a.SongPadMs = float64(-initialOffsetMs)
	}
	paddedSong := songMs + a.SongPadMs
	paddedClick := clickMs + a.ClickPadMs
	if paddedClick < paddedSong {
		a.ClickTailMs = paddedSong - paddedClick
	} else {
		a.SongTailMs = paddedClick - paddedSong
	}
	a.TotalMs = math.Max(paddedSong, paddedClick)
	return a
}

// CaptionOriginMs is where the first measure appears on the render timeline:
// the same place the click track starts.
func (a Alignment) CaptionOriginMs() float64 {
	return a.ClickPadMs
}
