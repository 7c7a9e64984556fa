package hostsfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const DefaultHostsFilePath = "/etc/hosts"

// Keeps the hosts file on the local disk. Rewrites go through a temporary
// file that is renamed into place, so a crash never leaves a half written
// hosts file behind.
type DiskStore struct {
	path string

	// flock only excludes other processes; the mutex covers goroutines.
	lock *sync.Mutex
}

func NewDiskStore(path string) *DiskStore {
	mutex := sync.Mutex{}
	ds := DiskStore{path, &mutex}
	return &ds
}

func (ds *DiskStore) Name() string {
	return ds.path
}

func (ds *DiskStore) Read(ctx context.Context) (string, error) {
	data, err := os.ReadFile(ds.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// A symlinked hosts file is rewritten at its target, so the link survives.
// The existing file's mode and owner carry over to the new one.
func (ds *DiskStore) Rewrite(ctx context.Context, contents string) error {
	path, err := filepath.EvalSymlinks(ds.path)
	if errors.Is(err, fs.ErrNotExist) {
		path = ds.path
	} else if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		info = nil
	} else if err != nil {
		return err
	}

	return writeFileAtomic(path, []byte(contents), info)
}

func (ds *DiskStore) Append(ctx context.Context, line string) error {
	f, err := os.OpenFile(ds.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (ds *DiskStore) Backup(ctx context.Context) (string, error) {
	data, err := os.ReadFile(ds.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNothingToBackup
	} else if err != nil {
		return "", err
	}

	backupPath := ds.path + ".bak"
	if err := writeFileAtomic(backupPath, data, nil); err != nil {
		return "", err
	}

	return backupPath, nil
}

// The lock is taken on a sidecar file rather than the hosts file itself,
// because every rewrite replaces the hosts file's inode.
func (ds *DiskStore) Lock(ctx context.Context) (func() error, error) {
	ds.lock.Lock()

	lockPath := filepath.Join(filepath.Dir(ds.path), "."+filepath.Base(ds.path)+".lock")
	release, err := flockExclusive(lockPath)
	if err != nil {
		ds.lock.Unlock()
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}

	return func() error {
		defer ds.lock.Unlock()
		return release()
	}, nil
}

// Writes data to path through a renamed temp file. When like is set, the new
// file takes its mode and owner; otherwise it gets 0644.
func writeFileAtomic(path string, data []byte, like fs.FileInfo) error {
	mode := fs.FileMode(0644)
	if like != nil {
		mode = like.Mode().Perm()
	}

	// Same directory, so the rename can't cross filesystems.
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if like != nil {
		if err := chownLike(tmpFile, like); err != nil {
			return fmt.Errorf("chown temp file: %w", err)
		}
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
