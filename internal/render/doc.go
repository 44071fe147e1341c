// Package render runs the full pipeline for one song descriptor: decode the
// schedule, render the click track, align and mix it with the song, then
// write captions and the optional caption video and MIDI file.
//
// A Runner holds no process-wide state; everything it needs arrives through
// the config it was built with and the Job passed to Run. External tools sit
// behind small interfaces so tests can substitute them.
package render
