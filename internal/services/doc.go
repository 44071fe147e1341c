// Package services defines shared helpers used across the render pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp render IDs, stage names and song titles for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (bad input vs external tool vs timeout) with errors.Is.
package services
