package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sprite-ai/devpulse/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func save(t *testing.T, s *Store, payload string) Entry {
	t.Helper()
	r, err := report.Normalize([]byte(payload))
	require.NoError(t, err)
	e, err := s.Save(context.Background(), []byte(payload), r)
	require.NoError(t, err)
	return e
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	payload := `{"repo_url": "https://github.com/acme/widget", "git_sha": "abc123", "code_health_score": 71}`

	e := save(t, s, payload)
	assert.Greater(t, e.ID, int64(0))
	assert.Equal(t, "https://github.com/acme/widget", e.RepoURL)
	assert.Equal(t, "abc123", e.Commit)
	assert.Equal(t, 71.0, e.HealthScore)

	got, err := s.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, payload, string(got.Payload))
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))

	r, err := got.Report()
	require.NoError(t, err)
	assert.Equal(t, 71.0, r.HealthScore)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := save(t, s, `{"git_sha": "one"}`)
	second := save(t, s, `{"git_sha": "two"}`)
	third := save(t, s, `{"git_sha": "three"}`)

	entries, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.Nil(t, entries[0].Payload)

	limited, err := s.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, "three", limited[0].Commit)
}

func TestListEmpty(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestSaveNilReport(t *testing.T) {
	s := openTestStore(t)
	e, err := s.Save(context.Background(), []byte(`[]`), nil)
	require.NoError(t, err)
	assert.Equal(t, "", e.RepoURL)
	assert.Equal(t, "N/A", e.Commit)
}

func TestSaveStoresCommitPrefix(t *testing.T) {
	s := openTestStore(t)
	e := save(t, s, `{"git_sha": "0123456789abcdef"}`)
	assert.Equal(t, "0123456789", e.Commit)
}
