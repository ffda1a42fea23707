package history

import (
	"math"
	"time"
)

// Usage holds the counters kept for one document. Every field is derived
// from the version log and Learn recomputes it from scratch.
type Usage struct {
	Recordings    int       `json:"recordings"`
	Major         int       `json:"major"`
	Minor         int       `json:"minor"`
	Patch         int       `json:"patch"`
	FirstRecorded time.Time `json:"first_recorded"`
	LastRecorded  time.Time `json:"last_recorded"`
	LastVersion   string    `json:"last_version"`
	FirstOverall  float64   `json:"first_overall"`
	LastOverall   float64   `json:"last_overall"`
	ScoreDelta    float64   `json:"score_delta"`
}

// apply folds one record into the counters.
func (u Usage) apply(rec VersionRecord) Usage {
	if u.Recordings == 0 {
		u.FirstRecorded = rec.CreatedAt
		u.FirstOverall = rec.Score.Overall
	}
	u.Recordings++
	switch rec.Bump {
	case BumpMajor:
		u.Major++
	case BumpMinor:
		u.Minor++
	case BumpPatch:
		u.Patch++
	}
	u.LastRecorded = rec.CreatedAt
	u.LastVersion = rec.Version
	u.LastOverall = rec.Score.Overall
	u.ScoreDelta = math.Round((u.LastOverall-u.FirstOverall)*10) / 10
	return u
}

// Learn rebuilds every usage counter by replaying the log in
// chronological order. The result equals what incremental recording
// produced, so it also repairs a hand-edited or truncated usage map.
func Learn(h History) History {
	next := h.clone()
	next.Usage = map[string]Usage{}
	for _, rec := range h.chronological() {
		next.Usage[rec.DocumentID] = next.Usage[rec.DocumentID].apply(rec)
	}
	return next
}
