// Package cli defines the Cobra command tree for the pointy CLI. Each file
// in this package registers one top-level command (install, run, serve, etc.)
// with the root command. Command implementations delegate to the launcher
// service and only handle flag parsing, output formatting and exit status.
package cli
