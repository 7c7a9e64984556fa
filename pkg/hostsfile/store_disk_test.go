package hostsfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

import (
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreReadMissing(t *testing.T) {
	ds := NewDiskStore(filepath.Join(t.TempDir(), "hosts"))

	_, err := ds.Read(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiskStoreRewriteKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0640))
	require.NoError(t, os.Chmod(path, 0640))

	ds := NewDiskStore(path)
	require.NoError(t, ds.Rewrite(context.Background(), "new\n"))

	contents, err := ds.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new\n", contents)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	// No temp files left lying around.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.Contains(entry.Name(), ".tmp-"), entry.Name())
	}
}

func TestDiskStoreRewriteThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "hosts.real")
	require.NoError(t, os.WriteFile(target, []byte("old\n"), 0600))
	link := filepath.Join(dir, "hosts")
	require.NoError(t, os.Symlink(target, link))

	ds := NewDiskStore(link)
	require.NoError(t, ds.Rewrite(context.Background(), "new\n"))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	info, err = os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDiskStoreAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	ds := NewDiskStore(path)

	require.NoError(t, ds.Append(context.Background(), "a\n"))
	require.NoError(t, ds.Append(context.Background(), "b\n"))

	contents, err := ds.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", contents)
}

func TestDiskStoreBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.1 alpha\n"), 0644))

	ds := NewDiskStore(path)
	backupPath, err := ds.Backup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, path+".bak", backupPath)
	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1 alpha\n", string(data))
}

func TestDiskStoreBackupMissing(t *testing.T) {
	ds := NewDiskStore(filepath.Join(t.TempDir(), "hosts"))

	_, err := ds.Backup(context.Background())
	assert.ErrorIs(t, err, ErrNothingToBackup)
}

func TestDiskStoreLockIsExclusive(t *testing.T) {
	ds := NewDiskStore(filepath.Join(t.TempDir(), "hosts"))

	unlock, err := ds.Lock(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		unlock2, err := ds.Lock(context.Background())
		if err == nil {
			_ = unlock2()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	default:
	}

	require.NoError(t, unlock())
	<-acquired
}

// Every writer's hostname has to survive, whichever order they land in.
func TestConcurrentAppendsKeepEveryHostname(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	logger, _ := test.NewNullLogger()
	hf := NewHostsFile(NewDiskStore(path), logger)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := hf.Append(context.Background(), "10.0.0.1", []string{fmt.Sprintf("host%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := hf.GetEntries(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	hl := ParseHostsLine(entries[0])
	assert.Len(t, hl.Hostnames, writers)
	for i := 0; i < writers; i++ {
		assert.Contains(t, hl.Hostnames, fmt.Sprintf("host%d", i))
	}
}
