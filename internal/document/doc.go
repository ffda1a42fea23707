// Package document reads markdown agent templates: it hashes the raw bytes,
// splits the leading YAML frontmatter block from the body and exposes the
// frontmatter fields and body headings the scorer and fixer need.
package document
