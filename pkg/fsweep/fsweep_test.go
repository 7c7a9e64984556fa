package fsweep

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

import (
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSweeper(t *testing.T, files ...string) (*Sweeper, *test.Hook) {
	t.Helper()

	source := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(source, f), []byte(f), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(source, "subdir"), 0755))

	logger, hook := test.NewNullLogger()
	return &Sweeper{Source: source, Log: logger}, hook
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := []string{}
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func TestSweepMovesFilesOnly(t *testing.T) {
	s, hook := newTestSweeper(t, "a.txt", "b.log")
	dest := t.TempDir()

	moves, err := s.Sweep(context.Background(), dest)
	require.NoError(t, err)

	assert.Len(t, moves, 2)
	assert.Equal(t, []string{"a.txt", "b.log"}, listDir(t, dest))
	assert.Equal(t, []string{"subdir"}, listDir(t, s.Source))

	data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", string(data))

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, "[+]", hook.AllEntries()[0].Data["prefix"])
}

func TestSweepExclude(t *testing.T) {
	s, _ := newTestSweeper(t, "a.txt", "b.log", "c.txt")
	s.Exclude = []string{"*.log"}
	dest := t.TempDir()

	_, err := s.Sweep(context.Background(), dest)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "c.txt"}, listDir(t, dest))
	assert.Equal(t, []string{"b.log", "subdir"}, listDir(t, s.Source))
}

func TestSweepFollowsFileSymlinks(t *testing.T) {
	s, _ := newTestSweeper(t, "a.txt")
	require.NoError(t, os.Symlink(filepath.Join(s.Source, "subdir"), filepath.Join(s.Source, "dirlink")))
	target := filepath.Join(t.TempDir(), "target")
	require.NoError(t, os.WriteFile(target, []byte("target"), 0644))
	require.NoError(t, os.Symlink(target, filepath.Join(s.Source, "filelink")))
	dest := t.TempDir()

	_, err := s.Sweep(context.Background(), dest)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "filelink"}, listDir(t, dest))
	assert.Equal(t, []string{"dirlink", "subdir"}, listDir(t, s.Source))
}

func TestSweepNotADirectory(t *testing.T) {
	s, _ := newTestSweeper(t, "a.txt")

	_, err := s.Sweep(context.Background(), filepath.Join(s.Source, "a.txt"))
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestSweepMissingDirectory(t *testing.T) {
	s, _ := newTestSweeper(t, "a.txt")

	_, err := s.Sweep(context.Background(), filepath.Join(s.Source, "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSweepIntoSourceAsksFirst(t *testing.T) {
	s, _ := newTestSweeper(t, "a.txt")
	asked := false
	s.Confirm = func() bool {
		asked = true
		return false
	}

	_, err := s.Sweep(context.Background(), s.Source)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.True(t, asked)
	assert.Equal(t, []string{"a.txt", "subdir"}, listDir(t, s.Source))
}

func TestSweepIntoSourceConfirmed(t *testing.T) {
	s, _ := newTestSweeper(t, "a.txt")
	s.Confirm = func() bool { return true }

	moves, err := s.Sweep(context.Background(), filepath.Join(s.Source, "subdir", ".."))
	require.NoError(t, err)
	assert.Len(t, moves, 1)
	assert.Equal(t, []string{"a.txt", "subdir"}, listDir(t, s.Source))
}

func TestSweepCancelled(t *testing.T) {
	s, _ := newTestSweeper(t, "a.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	moves, err := s.Sweep(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, moves)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	require.NoError(t, os.WriteFile(src, []byte("contents"), 0600))

	require.NoError(t, copyFile(src, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))
}
