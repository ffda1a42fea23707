package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "history.json"))
	h, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, h.Versions)
	assert.NotNil(t, h.Usage)
}

func TestStore_SaveLoad(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), ".agentq", "history.json"))
	want := buildHistory(t)
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_NonUTF8ContentSurvivesReload(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "history.json"))
	latin1 := "---\nname: caf\xe9\ndescription: men\xfa\n---\n## Goal\nServe caf\xe9.\n"
	r := newTestRecorder(t0)

	h, _, err := r.Record(New(), doc("latin", latin1))
	require.NoError(t, err)
	require.NoError(t, s.Save(h))

	h, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, []byte(latin1), h.Versions[0].Content)
	assert.Empty(t, Verify(h))

	_, res, err := r.Record(h, doc("latin", latin1+"One more line.\n"))
	require.NoError(t, err)
	assert.Equal(t, BumpPatch, res.Bump)
	assert.Equal(t, []Change{{Kind: ChangeAddition, Count: 1, Samples: []string{"One more line."}}}, res.Record.Changes)
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewStore(path).Load()
	require.Error(t, err)
	assert.Equal(t, errs.KindParse, errs.KindOf(err))
}

func TestStore_UpdateAbortsOnError(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "history.json"))
	boom := errors.New("boom")
	_, err := s.Update(context.Background(), func(h History) (History, error) {
		h.Versions = append(h.Versions, VersionRecord{ID: "x"})
		return h, boom
	})
	assert.ErrorIs(t, err, boom)

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "nothing written")
}

func TestStore_ConcurrentUpdatesSerialize(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "history.json"))
	scorer := quality.MustDefaultScorer()

	const writers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := NewRecorder(scorer)
			text := baseTemplate + string(rune('a'+i)) + "\n"
			_, err := s.Update(context.Background(), func(h History) (History, error) {
				next, _, err := r.Record(h, doc("shared", text))
				return next, err
			})
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	h, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, h.Versions, writers, "every writer appended exactly once")
	assert.Equal(t, writers, h.Usage["shared"].Recordings)
	assert.Empty(t, Verify(h))
}
