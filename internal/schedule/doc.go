// Package schedule turns a song's time-signature segments into a concrete,
// time-stamped beat schedule.
//
// Decode resolves a single Segment into a Signature, including subdivision
// promotion and beat classification. Build decodes every segment of a song up
// front so that a malformed segment fails before any event is produced; the
// resulting Schedule can then be walked any number of times through Beats and
// Measures, both of which are lazy iterators over the same forward-only walk.
// Align reconciles the schedule against an external audio track and the
// song-level initial offset.
//
// Nothing in this package performs I/O. Audio and caption rendering consume
// the events produced here.
package schedule
