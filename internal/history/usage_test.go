package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildHistory records a few edits across two documents.
func buildHistory(t *testing.T) History {
	t.Helper()
	r := newTestRecorder(t0)
	h := New()
	edits := []struct{ id, text string }{
		{"a", baseTemplate},
		{"b", "# B\n"},
		{"a", baseTemplate + "Tweak.\n"},
		{"a", baseTemplate + "Tweak.\n## Tools\n"},
		{"b", "# B\n- 1\n- 2\n- 3\n- 4\n"},
		{"a", baseTemplate + "Tweak.\n## Tools\n"},
	}
	for _, e := range edits {
		var err error
		h, _, err = r.Record(h, doc(e.id, e.text))
		require.NoError(t, err)
	}
	return h
}

func TestUsage_Incremental(t *testing.T) {
	h := buildHistory(t)
	require.Len(t, h.Versions, 5, "the last edit is unchanged")

	a := h.Usage["a"]
	assert.Equal(t, 3, a.Recordings)
	assert.Equal(t, 1, a.Major)
	assert.Equal(t, 0, a.Minor)
	assert.Equal(t, 1, a.Patch)
	assert.Equal(t, "2.0.0", a.LastVersion)
	assert.Equal(t, t0, a.FirstRecorded)

	b := h.Usage["b"]
	assert.Equal(t, 2, b.Recordings)
	assert.Equal(t, 1, b.Minor)
	assert.Equal(t, "1.1.0", b.LastVersion)
}

func TestLearn_MatchesIncremental(t *testing.T) {
	h := buildHistory(t)
	learned := Learn(h)
	assert.Equal(t, h.Usage, learned.Usage)
	assert.Equal(t, h.Versions, learned.Versions)
}

func TestLearn_RepairsUsage(t *testing.T) {
	h := buildHistory(t)
	want := h.Usage

	broken := h
	broken.Usage = map[string]Usage{"ghost": {Recordings: 7}}
	assert.Equal(t, want, Learn(broken).Usage)
}

func TestLearn_Empty(t *testing.T) {
	assert.Empty(t, Learn(New()).Usage)
}

func TestUsage_ScoreDelta(t *testing.T) {
	u := Usage{}
	u = u.apply(VersionRecord{Version: "1.0.0", Bump: BumpInitial, CreatedAt: t0, Score: scoreOf(40)})
	u = u.apply(VersionRecord{Version: "1.0.1", Bump: BumpPatch, CreatedAt: t0.Add(time.Minute), Score: scoreOf(55.5)})
	assert.Equal(t, 15.5, u.ScoreDelta)
	assert.Equal(t, 40.0, u.FirstOverall)
	assert.Equal(t, 55.5, u.LastOverall)
	assert.Equal(t, 2, u.Recordings)
	assert.Equal(t, 1, u.Patch)
}
