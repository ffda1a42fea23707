package quality

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/agentx-labs/agentq/internal/document"
	"github.com/agentx-labs/agentq/internal/errs"
)

// Issues recorded when the frontmatter block cannot be used.
const (
	IssueMissingFrontmatter = "Missing YAML frontmatter"
	issueFrontmatterParse   = "Frontmatter parsing error: %v"
)

// Score is the result of scoring one document. Dimensions maps each policy
// dimension name to its 0-100 sub-score.
type Score struct {
	Dimensions map[string]float64 `json:"dimensions"`
	Overall    float64            `json:"overall"`
	Issues     []string           `json:"issues"`
	Strengths  []string           `json:"strengths"`
}

// Dimension returns the sub-score for name, or 0 if the policy has no such
// dimension.
func (s Score) Dimension(name string) float64 {
	return s.Dimensions[name]
}

// Scorer applies a compiled policy. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	policy           Policy
	dimensions       []compiledDimension
	weightSum        float64
	needsFrontmatter bool
}

type compiledDimension struct {
	Dimension
	checks           []compiledCheck
	needsFrontmatter bool
}

type compiledCheck struct {
	Check
	re *regexp.Regexp
}

// NewScorer compiles every pattern and heading check of p. A regex that
// does not compile is a ParseError naming the dimension and check.
func NewScorer(p Policy) (*Scorer, error) {
	p.applyDefaults()
	s := &Scorer{policy: p}
	for _, d := range p.Dimensions {
		cd := compiledDimension{Dimension: d}
		for i, c := range d.Checks {
			cc := compiledCheck{Check: c}
			var expr string
			switch c.Kind {
			case KindPattern:
				expr = c.Target
			case KindHeading:
				expr = HeadingPattern(c.Target)
			case KindField, KindList:
				cd.needsFrontmatter = true
			case KindWords:
			default:
				return nil, errs.Newf(errs.KindParse, "dimension %q check %d: unknown kind %q", d.Name, i, c.Kind)
			}
			if expr != "" {
				re, err := regexp.Compile(expr)
				if err != nil {
					return nil, errs.Parse(err, fmt.Sprintf("compiling dimension %q check %d", d.Name, i), "")
				}
				cc.re = re
			}
			cd.checks = append(cd.checks, cc)
		}
		s.dimensions = append(s.dimensions, cd)
		s.weightSum += d.Weight
		s.needsFrontmatter = s.needsFrontmatter || cd.needsFrontmatter
	}
	return s, nil
}

// MustDefaultScorer returns a scorer for the built-in policy.
func MustDefaultScorer() *Scorer {
	s, err := NewScorer(Default())
	if err != nil {
		panic(err)
	}
	return s
}

// Policy returns the policy the scorer was built from.
func (s *Scorer) Policy() Policy { return s.policy }

// HeadingPattern returns the expression a heading check uses: a
// case-insensitive prefix match of the heading text against the "A|B"
// alternatives of target.
func HeadingPattern(target string) string {
	alts := strings.Split(target, "|")
	for i, a := range alts {
		alts[i] = regexp.QuoteMeta(strings.TrimSpace(a))
	}
	return `(?i)^(?:` + strings.Join(alts, "|") + `)`
}

// ScoreText parses text and scores it.
func (s *Scorer) ScoreText(text string) Score {
	return s.Score(document.Parse("", []byte(text)))
}

// Score evaluates doc against the policy. A frontmatter problem zeroes only
// the dimensions that read frontmatter and is recorded as an issue; every
// other dimension is still scored from the body.
func (s *Scorer) Score(doc *document.Document) Score {
	score := Score{
		Dimensions: make(map[string]float64, len(s.dimensions)),
		Issues:     []string{},
		Strengths:  []string{},
	}

	frontmatterIssue := ""
	switch {
	case !s.needsFrontmatter:
	case !doc.HasFrontmatter:
		frontmatterIssue = IssueMissingFrontmatter
	case doc.FrontmatterErr != nil:
		frontmatterIssue = fmt.Sprintf(issueFrontmatterParse, doc.FrontmatterErr)
	}
	if frontmatterIssue != "" {
		score.Issues = append(score.Issues, frontmatterIssue)
	}

	in := newInputs(doc)
	var weighted float64
	for _, d := range s.dimensions {
		var value float64
		if d.needsFrontmatter && frontmatterIssue != "" {
			value = 0
		} else {
			value = s.scoreDimension(d, doc, in, &score)
		}
		value = round1(clamp(value))
		score.Dimensions[d.Name] = value
		if value >= s.policy.StrengthThreshold {
			score.Strengths = append(score.Strengths, fmt.Sprintf("Strong %s compliance", d.Label))
		}
		weighted += d.Weight * value
	}
	if s.weightSum > 0 {
		score.Overall = round1(clamp(weighted / s.weightSum))
	}
	return score
}

// inputs are derived once per document and shared by all checks.
type inputs struct {
	headings []string
	words    int
}

func newInputs(doc *document.Document) inputs {
	in := inputs{words: len(strings.Fields(doc.Body))}
	for _, h := range doc.Headings() {
		in.headings = append(in.headings, h.Text)
	}
	return in
}

func (s *Scorer) scoreDimension(d compiledDimension, doc *document.Document, in inputs, score *Score) float64 {
	var total float64
	for _, c := range d.checks {
		count := c.count(doc, in)
		need := c.Min
		if need < 1 {
			need = 1
		}
		if count >= need {
			total += c.Weight
			at := c.StrengthAt
			if at < need {
				at = need
			}
			if c.Strength != "" && count >= at {
				score.Strengths = append(score.Strengths, c.Strength)
			}
		} else {
			score.Issues = append(score.Issues, c.issue())
		}
	}
	return total
}

// count returns how many times the check matched: 1 for a present field,
// the item count of a list, the number of matching headings or regex
// matches, or the body word count.
func (c compiledCheck) count(doc *document.Document, in inputs) int {
	switch c.Kind {
	case KindField:
		if _, ok := doc.Field(c.Target); ok {
			return 1
		}
	case KindList:
		if items, ok := doc.List(c.Target); ok {
			return len(items)
		}
	case KindHeading:
		n := 0
		for _, h := range in.headings {
			if c.re.MatchString(h) {
				n++
			}
		}
		return n
	case KindPattern:
		return len(c.re.FindAllStringIndex(doc.Body, -1))
	case KindWords:
		return in.words
	}
	return 0
}

func (c compiledCheck) issue() string {
	if c.Issue != "" {
		return c.Issue
	}
	switch c.Kind {
	case KindField:
		return fmt.Sprintf("Missing %s field", c.Target)
	case KindList:
		return fmt.Sprintf("Missing or invalid %s array", c.Target)
	case KindHeading:
		first, _, _ := strings.Cut(c.Target, "|")
		return fmt.Sprintf("Missing %s section", strings.TrimSpace(first))
	case KindWords:
		return fmt.Sprintf("Fewer than %d words", c.Min)
	default:
		return fmt.Sprintf("Pattern not found: %s", c.Target)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
