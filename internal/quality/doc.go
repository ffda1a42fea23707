// Package quality scores agent templates against a data-driven policy.
//
// A Policy is a table of weighted checks grouped into dimensions (YAML
// frontmatter, required sections, workflow integration, documentation
// depth). Each dimension is the capped sum of its matched check weights;
// the overall score is the weighted mean of the dimensions. The built-in
// policy is embedded as YAML, and replacement policies are validated
// against an embedded JSON Schema before use.
package quality
