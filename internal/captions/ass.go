package captions

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Layout positions the caption and header layers on a video frame.
type Layout struct {
	Width           int
	Height          int
	ArtHeight       int
	CaptionFontSize int
	TitleFontSize   int
	MetaFontSize    int
}

// DefaultLayout matches a 720p render with 360px album art.
func DefaultLayout() Layout {
	return Layout{
		Width:           1280,
		Height:          720,
		ArtHeight:       360,
		CaptionFontSize: 24,
		TitleFontSize:   40,
		MetaFontSize:    30,
	}
}

// CaptionY is the top of the caption block: 40px below the centered art.
func (l Layout) CaptionY() int {
	artTop := (l.Height - l.ArtHeight) / 2
	return artTop + l.ArtHeight + 40
}

// Header is the static text shown for the whole render.
type Header struct {
	Title  string
	Album  string
	Artist string
}

// WriteASS writes captions plus header layers as an ASS script sized to the
// layout. Header events span [0, totalMs]. A zero Layout means DefaultLayout.
func WriteASS(w io.Writer, caps []Caption, header Header, layout Layout, totalMs float64) error {
	if err := validate(caps); err != nil {
		return err
	}
	if layout == (Layout{}) {
		layout = DefaultLayout()
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "[Script Info]\nScriptType: v4.00+\nPlayResX: %d\nPlayResY: %d\nWrapStyle: 2\nScaledBorderAndShadow: yes\n\n", layout.Width, layout.Height)

	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	writeStyle(bw, "Title", layout.TitleFontSize, 3, 8, 20)
	writeStyle(bw, "Meta", layout.MetaFontSize, 3, 8, 0)
	writeStyle(bw, "Caption", layout.CaptionFontSize, 1, 8, 0)
	bw.WriteString("\n[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	centerX := layout.Width / 2
	titleY := 20
	albumY := titleY + layout.TitleFontSize + 10
	artistY := albumY + layout.MetaFontSize + 6
	headerLines := []struct {
		style string
		y     int
		text  string
	}{
		{"Title", titleY, header.Title},
		{"Meta", albumY, header.Album},
		{"Meta", artistY, header.Artist},
	}
	for _, line := range headerLines {
		if strings.TrimSpace(line.text) == "" {
			continue
		}
		writeEvent(bw, 1, 0, totalMs, line.style, fmt.Sprintf("{\\pos(%d,%d)}%s", centerX, line.y, escapeASS(line.text)))
	}

	captionY := layout.CaptionY()
	for _, c := range caps {
		writeEvent(bw, 0, c.StartMs, c.EndMs, "Caption", fmt.Sprintf("{\\pos(%d,%d)}%s", centerX, captionY, escapeASS(c.Text)))
	}
	return bw.Flush()
}

func writeStyle(w *bufio.Writer, name string, size, borderStyle, alignment, marginV int) {
	fmt.Fprintf(w, "Style: %s,Sans,%d,&H00FFFFFF,&H00FFFFFF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,%d,1,0,%d,10,10,%d,1\n",
		name, size, borderStyle, alignment, marginV)
}

func writeEvent(w *bufio.Writer, layer int, startMs, endMs float64, style, text string) {
	fmt.Fprintf(w, "Dialogue: %d,%s,%s,%s,,0,0,0,,%s\n", layer, formatASSTimestamp(startMs), formatASSTimestamp(endMs), style, text)
}

// formatASSTimestamp renders H:MM:SS.cc.
func formatASSTimestamp(ms float64) string {
	if ms < 0 {
		ms = 0
	}
	centis := int(ms/10 + 0.5)
	h := centis / 360_000
	centis %= 360_000
	m := centis / 6000
	centis %= 6000
	s := centis / 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, centis%100)
}

func escapeASS(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.NewReplacer("{", "(", "}", ")").Replace(text)
	return strings.ReplaceAll(text, "\n", "\\N")
}
