package quality

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/agentx-labs/agentq/internal/errs"
	"go.yaml.in/yaml/v3"
)

//go:embed default_policy.yaml
var defaultPolicyBytes []byte

// CheckKind selects how a check inspects a document.
type CheckKind string

// Check kinds.
const (
	KindField   CheckKind = "field"   // frontmatter scalar present and non-empty
	KindList    CheckKind = "list"    // frontmatter sequence with at least Min items
	KindHeading CheckKind = "heading" // body heading starting with Target
	KindPattern CheckKind = "pattern" // regex matched at least Min times
	KindWords   CheckKind = "words"   // body has at least Min words
)

// Policy is the whole scoring configuration: the weighted check table, the
// report tiers and the version classification threshold.
type Policy struct {
	Name              string      `yaml:"name" json:"name"`
	StrengthThreshold float64     `yaml:"strength_threshold,omitempty" json:"strength_threshold,omitempty"`
	Versioning        Versioning  `yaml:"versioning,omitempty" json:"versioning,omitempty"`
	Tiers             []Tier      `yaml:"tiers" json:"tiers"`
	Dimensions        []Dimension `yaml:"dimensions" json:"dimensions"`
}

// Versioning holds the change classification settings.
type Versioning struct {
	// MinorBulletThreshold is the number of added bullet lines a change must
	// exceed to count as a minor bump.
	MinorBulletThreshold int `yaml:"minor_bullet_threshold,omitempty" json:"minor_bullet_threshold,omitempty"`
}

// Dimension is one independently computed sub-score.
type Dimension struct {
	Name   string  `yaml:"name" json:"name"`
	Label  string  `yaml:"label,omitempty" json:"label,omitempty"`
	Weight float64 `yaml:"weight" json:"weight"`
	Checks []Check `yaml:"checks" json:"checks"`
}

// Check is one row of the scoring table.
type Check struct {
	Kind       CheckKind `yaml:"kind" json:"kind"`
	Target     string    `yaml:"target,omitempty" json:"target,omitempty"`
	Min        int       `yaml:"min,omitempty" json:"min,omitempty"`
	Weight     float64   `yaml:"weight" json:"weight"`
	Issue      string    `yaml:"issue,omitempty" json:"issue,omitempty"`
	Strength   string    `yaml:"strength,omitempty" json:"strength,omitempty"`
	StrengthAt int       `yaml:"strength_at,omitempty" json:"strength_at,omitempty"`
}

// Tier is a score range. Min is inclusive; Max is exclusive except for the
// last tier, which also contains its Max.
type Tier struct {
	Name string  `yaml:"name" json:"name"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

const (
	defaultStrengthThreshold    = 90
	defaultMinorBulletThreshold = 3
)

var (
	defaultOnce   sync.Once
	defaultPolicy Policy
)

// Default returns a copy of the built-in policy.
func Default() Policy {
	defaultOnce.Do(func() {
		p, err := parsePolicy(defaultPolicyBytes, "default_policy.yaml")
		if err != nil {
			panic(fmt.Sprintf("built-in policy is invalid: %v", err))
		}
		defaultPolicy = p
	})
	return defaultPolicy.clone()
}

// LoadPolicy reads a policy file, validates it against the embedded schema
// and returns it. An empty path returns the built-in policy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errs.FromFS(err, "reading policy", path)
	}
	return ParsePolicy(data, path)
}

// ParsePolicy validates raw YAML against the schema, decodes it and checks
// the semantic rules the schema cannot express.
func ParsePolicy(data []byte, source string) (Policy, error) {
	result, err := ValidateSchema(data)
	if err != nil {
		return Policy{}, errs.Parse(err, "decoding policy", source)
	}
	if !result.Valid {
		var failures []string
		for _, issue := range result.Issues {
			failures = append(failures, issue.String())
		}
		return Policy{}, errs.Validation("policy "+source+" does not match schema", failures)
	}
	return parsePolicy(data, source)
}

func parsePolicy(data []byte, source string) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, errs.Parse(err, "decoding policy", source)
	}
	p.applyDefaults()
	if failures := p.Validate(); len(failures) > 0 {
		return Policy{}, errs.Validation("policy "+source+" is inconsistent", failures)
	}
	return p, nil
}

func (p *Policy) applyDefaults() {
	if p.StrengthThreshold == 0 {
		p.StrengthThreshold = defaultStrengthThreshold
	}
	if p.Versioning.MinorBulletThreshold == 0 {
		p.Versioning.MinorBulletThreshold = defaultMinorBulletThreshold
	}
	for i := range p.Dimensions {
		if p.Dimensions[i].Label == "" {
			p.Dimensions[i].Label = p.Dimensions[i].Name
		}
	}
}

// Validate returns every semantic problem with the policy: duplicate
// dimension names, non-positive weights, and tiers that do not partition
// [0, 100].
func (p Policy) Validate() []string {
	var failures []string
	seen := map[string]bool{}
	for _, d := range p.Dimensions {
		if seen[d.Name] {
			failures = append(failures, fmt.Sprintf("dimension %q is defined twice", d.Name))
		}
		seen[d.Name] = true
		if d.Weight <= 0 {
			failures = append(failures, fmt.Sprintf("dimension %q has non-positive weight %.2f", d.Name, d.Weight))
		}
		for i, c := range d.Checks {
			if c.Kind == KindPattern && c.Target == "" {
				failures = append(failures, fmt.Sprintf("dimension %q check %d: pattern is empty", d.Name, i))
			}
		}
	}
	if len(p.Dimensions) == 0 {
		failures = append(failures, "policy has no dimensions")
	}
	failures = append(failures, validateTiers(p.Tiers)...)
	return failures
}

func validateTiers(tiers []Tier) []string {
	if len(tiers) == 0 {
		return []string{"policy has no tiers"}
	}
	sorted := append([]Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	var failures []string
	if sorted[0].Min != 0 {
		failures = append(failures, fmt.Sprintf("lowest tier %q starts at %g, want 0", sorted[0].Name, sorted[0].Min))
	}
	last := sorted[len(sorted)-1]
	if last.Max != 100 {
		failures = append(failures, fmt.Sprintf("highest tier %q ends at %g, want 100", last.Name, last.Max))
	}
	for i, t := range sorted {
		if t.Max <= t.Min {
			failures = append(failures, fmt.Sprintf("tier %q is empty or inverted [%g, %g)", t.Name, t.Min, t.Max))
		}
		if i > 0 && sorted[i-1].Max != t.Min {
			failures = append(failures, fmt.Sprintf("tiers %q and %q are not contiguous (%g != %g)",
				sorted[i-1].Name, t.Name, sorted[i-1].Max, t.Min))
		}
	}
	return failures
}

// DimensionNames returns the dimension names in policy order.
func (p Policy) DimensionNames() []string {
	names := make([]string, len(p.Dimensions))
	for i, d := range p.Dimensions {
		names[i] = d.Name
	}
	return names
}

// SortedTiers returns the tiers ordered by their lower bound.
func (p Policy) SortedTiers() []Tier {
	sorted := append([]Tier(nil), p.Tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	return sorted
}

// TierFor returns the name of the tier containing score. Scores outside
// [0, 100] are clamped first, so every score lands in exactly one tier of a
// valid policy.
func (p Policy) TierFor(score float64) string {
	score = clamp(score)
	tiers := p.SortedTiers()
	for i, t := range tiers {
		if score >= t.Min && (score < t.Max || (i == len(tiers)-1 && score <= t.Max)) {
			return t.Name
		}
	}
	return ""
}

// RequiredHeadings returns the heading text each heading check expects,
// using the first alternative of a "A|B" target.
func (p Policy) RequiredHeadings() []string {
	var out []string
	for _, d := range p.Dimensions {
		for _, c := range d.Checks {
			if c.Kind != KindHeading {
				continue
			}
			first, _, _ := strings.Cut(c.Target, "|")
			out = append(out, strings.TrimSpace(first))
		}
	}
	return out
}

// Marshal renders the policy as YAML.
func (p Policy) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

func (p Policy) clone() Policy {
	c := p
	c.Tiers = append([]Tier(nil), p.Tiers...)
	c.Dimensions = make([]Dimension, len(p.Dimensions))
	for i, d := range p.Dimensions {
		d.Checks = append([]Check(nil), d.Checks...)
		c.Dimensions[i] = d
	}
	return c
}
