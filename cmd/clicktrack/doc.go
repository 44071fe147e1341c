// Package main hosts the clicktrack CLI entrypoint and command graph.
//
// The Cobra command tree turns a song descriptor into a rendered click track,
// caption file, optional caption video and MIDI export, and exposes the
// schedule, render history and external tool checks for inspection. It
// centralizes configuration resolution and logger setup so subcommands only
// translate flags into internal package calls.
package main
