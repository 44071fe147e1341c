// Package captions turns a schedule's measures into timed on-screen text and
// writes it as SRT or Advanced SubStation Alpha (ASS) subtitles.
//
// Build places captions on the render timeline: the first measure begins at
// the supplied origin, positive segment offsets delay the segment, negative
// offsets trail it, and the final caption is stretched to the render's total
// duration. WriteASS additionally carries the static title, album and artist
// layers used by the video compositor.
package captions
