// Package cli defines the Cobra command tree for the agentq CLI. Each file
// in this package registers one top-level command (record, report, check,
// etc.) with the root command. Command implementations delegate to internal
// packages for scoring, versioning and rendering, and only handle flag
// parsing, I/O formatting and exit status.
package cli
