// Package preflight provides readiness checks for the filesystem paths and
// click samples a render depends on.
//
// The CLI "deps" and "config validate" commands print these results next to
// the external tool checks. Each check is gated by its config toggle, so a
// disabled feature never reports a failure.
package preflight
