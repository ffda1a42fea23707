// Package report aggregates per-document scores into a corpus summary and
// renders it as JSON, Markdown, an HTML dashboard or a terminal table.
//
// Aggregate holds all the logic; every renderer is a pure formatting step
// over the same Report value.
package report
