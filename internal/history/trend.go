package history

import (
	"math"
	"sort"
)

// TrendPoint is the corpus mean overall score at the end of one UTC day.
type TrendPoint struct {
	Date      string  `json:"date"`
	Average   float64 `json:"average"`
	Documents int     `json:"documents"`
}

// Trend replays the log and emits one point per day that saw a recording.
// Each point averages the latest known overall score of every document
// recorded on or before that day.
func Trend(h History) []TrendPoint {
	latest := map[string]float64{}
	var points []TrendPoint
	var day string

	emit := func() {
		if day == "" {
			return
		}
		ids := make([]string, 0, len(latest))
		for id := range latest {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		var sum float64
		for _, id := range ids {
			sum += latest[id]
		}
		points = append(points, TrendPoint{
			Date:      day,
			Average:   math.Round(sum/float64(len(ids))*10) / 10,
			Documents: len(ids),
		})
	}

	for _, rec := range h.chronological() {
		d := rec.CreatedAt.UTC().Format("2006-01-02")
		if d != day {
			emit()
			day = d
		}
		latest[rec.DocumentID] = rec.Score.Overall
	}
	emit()
	return points
}
