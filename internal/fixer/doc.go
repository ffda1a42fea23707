// Package fixer inserts the required sections a template is missing.
//
// Each missing heading from the policy is rendered from an embedded
// text/template placeholder and appended after the existing content, which
// is kept byte for byte. Files are rewritten atomically and a .bak copy of
// the original can be kept.
package fixer
