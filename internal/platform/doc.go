// Package platform provides the filesystem primitives shared by commands
// that rewrite files in place: atomic replacement through a temp file and
// rename, backup copies, and permission handling that is a no-op on
// Windows.
package platform
