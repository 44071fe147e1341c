// Package ffmpeg drives the ffmpeg binary for the two jobs a render hands
// off: decoding song audio into the render's PCM format, and composing the
// caption video from cover art, burned-in ASS captions and the mixed audio.
//
// Every invocation writes to a temporary sibling path and renames into place
// on success, so a cancelled or failed run never leaves a half-written output.
package ffmpeg
