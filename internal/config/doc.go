// Package config manages settings stored at ~/.agentq/config.yaml and
// AGENTQ_* environment variables: the template library directory, the
// history file, an optional scoring policy override, report and log options.
package config
