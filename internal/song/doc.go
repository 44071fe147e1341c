// Package song parses song descriptors: the title, album, artist, global
// offset and ordered time-signature segments a click track is rendered from.
//
// Descriptors may be written as TOML, YAML, or JSON with comments and
// trailing commas (JSONC/JSON5-style). Missing required segment fields are
// reported as ErrMissingRequiredField before any schedule is built.
package song
