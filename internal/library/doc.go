// Package library discovers agent templates on disk.
//
// A library is a directory tree of markdown files. Each file's id is its
// path relative to the library root without the extension, so
// "agents/review/code-reviewer.md" under root "agents" is
// "review/code-reviewer".
package library
