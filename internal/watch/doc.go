// Package watch re-runs an action whenever templates under a directory
// change. Events are filtered to markdown templates and batched over a
// short debounce window so an editor's burst of writes becomes one call.
package watch
