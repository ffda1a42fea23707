// Package history keeps the append-only version log of agent templates.
//
// Every recording hashes the template, and when the hash differs from the
// latest record it appends a new VersionRecord with a semantic version
// bumped by the kind of change: a different set of headings is major, a
// batch of new list items is minor, anything else is a patch. Per-document
// usage counters are maintained alongside the log and can be rebuilt from
// it with Learn.
//
// The Store serializes writers with a file lock and replaces the JSON file
// atomically, so concurrent invocations never interleave or truncate it.
package history
