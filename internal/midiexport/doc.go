// Package midiexport writes a click schedule as a Standard MIDI File so the
// click can be loaded into a DAW alongside the rendered audio.
//
// The file is format 0 with one track. Every segment contributes a tempo and
// meter event at its first measure; clicks are percussion notes on channel
// 10 (index 9) using the General MIDI wood blocks and side stick.
package midiexport
