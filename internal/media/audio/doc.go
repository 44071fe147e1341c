// Package audio holds 16-bit PCM buffers and the operations a render needs:
// WAV decoding and encoding, gain, click track rendering from a schedule,
// and overlay mixing of the click track with the song.
package audio
