package report

import (
	"math"
	"sort"
	"time"

	"github.com/agentx-labs/agentq/internal/history"
	"github.com/agentx-labs/agentq/internal/quality"
)

// DefaultTopN is the length of the issue and strength rankings.
const DefaultTopN = 10

// Entry is one scored document fed to Aggregate.
type Entry struct {
	ID      string        `json:"id"`
	Path    string        `json:"path,omitempty"`
	Version string        `json:"version,omitempty"`
	Tier    string        `json:"tier"`
	Score   quality.Score `json:"score"`
}

// Tally is a distinct issue or strength string and how many times it
// occurred across the corpus.
type Tally struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// TierCount is one bucket of the tier partition.
type TierCount struct {
	Name  string  `json:"name"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Report is the corpus-wide rollup. Renderers only format it.
type Report struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	Policy       string               `json:"policy"`
	Documents    int                  `json:"documents"`
	Dimensions   []string             `json:"dimensions"`
	Averages     map[string]float64   `json:"averages"`
	Overall      float64              `json:"overall"`
	Tiers        []TierCount          `json:"tiers"`
	TopIssues    []Tally              `json:"top_issues"`
	TopStrengths []Tally              `json:"top_strengths"`
	Entries      []Entry              `json:"entries"`
	Trend        []history.TrendPoint `json:"trend,omitempty"`
}

// Options tunes Aggregate.
type Options struct {
	TopN  int
	Now   time.Time
	Trend []history.TrendPoint
}

// Aggregate folds entries into a Report. The result does not depend on
// the order of entries: they are sorted by id and every ranking has a
// total order.
func Aggregate(entries []Entry, p quality.Policy, opts Options) Report {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	r := Report{
		GeneratedAt: opts.Now.UTC(),
		Policy:      p.Name,
		Documents:   len(sorted),
		Dimensions:  p.DimensionNames(),
		Averages:    make(map[string]float64, len(p.Dimensions)),
		Entries:     sorted,
		Trend:       opts.Trend,
	}

	tiers := p.SortedTiers()
	r.Tiers = make([]TierCount, len(tiers))
	index := make(map[string]int, len(tiers))
	for i, t := range tiers {
		r.Tiers[i] = TierCount{Name: t.Name, Min: t.Min, Max: t.Max}
		index[t.Name] = i
	}

	sums := make(map[string]float64, len(r.Dimensions))
	var overall float64
	issues := map[string]int{}
	strengths := map[string]int{}
	for i := range r.Entries {
		e := &r.Entries[i]
		for _, d := range r.Dimensions {
			sums[d] += e.Score.Dimension(d)
		}
		overall += e.Score.Overall
		e.Tier = p.TierFor(e.Score.Overall)
		if ti, ok := index[e.Tier]; ok {
			r.Tiers[ti].Count++
		}
		for _, s := range e.Score.Issues {
			issues[s]++
		}
		for _, s := range e.Score.Strengths {
			strengths[s]++
		}
	}

	if n := float64(len(r.Entries)); n > 0 {
		for _, d := range r.Dimensions {
			r.Averages[d] = round1(sums[d] / n)
		}
		r.Overall = round1(overall / n)
	} else {
		for _, d := range r.Dimensions {
			r.Averages[d] = 0
		}
	}
	r.TopIssues = rank(issues, opts.TopN)
	r.TopStrengths = rank(strengths, opts.TopN)
	return r
}

// rank orders counts by descending frequency, then ascending text, and
// keeps the first n.
func rank(counts map[string]int, n int) []Tally {
	out := make([]Tally, 0, len(counts))
	for text, c := range counts {
		out = append(out, Tally{Text: text, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TierTotal returns the sum of all tier counts. For a valid policy it
// always equals Documents.
func (r Report) TierTotal() int {
	total := 0
	for _, t := range r.Tiers {
		total += t.Count
	}
	return total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
