package fsweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ryanuber/go-glob"
	"github.com/sirupsen/logrus"

	"github.com/Eagerod/hostsfile-tools/pkg/logging"
)

var (
	ErrNotDirectory = errors.New("the specified path is not a directory")
	ErrCancelled    = errors.New("operation cancelled")
)

type Move struct {
	Name        string
	Destination string
}

// Moves the regular files at the top level of Source into another
// directory. Subdirectories are left where they are.
type Sweeper struct {
	Source string
	// Glob patterns, matched against file names, of files to leave behind.
	Exclude []string
	// Asked before sweeping Source into itself. A nil Confirm refuses.
	Confirm func() bool
	Log     logrus.FieldLogger
}

func (s *Sweeper) Sweep(ctx context.Context, directory string) ([]Move, error) {
	info, err := os.Stat(directory)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, directory)
	}

	same, err := s.sameDirectory(directory)
	if err != nil {
		return nil, err
	}
	if same && (s.Confirm == nil || !s.Confirm()) {
		return nil, ErrCancelled
	}

	entries, err := os.ReadDir(s.Source)
	if err != nil {
		return nil, err
	}

	moves := []Move{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return moves, err
		}

		if s.excluded(entry.Name()) {
			s.Log.Debugf("Skipping excluded file %s", entry.Name())
			continue
		}

		src := filepath.Join(s.Source, entry.Name())
		// Follows symlinks, so a link to a file is moved like a file.
		srcInfo, err := os.Stat(src)
		if err != nil || !srcInfo.Mode().IsRegular() {
			continue
		}

		dest := filepath.Join(directory, entry.Name())
		if err := moveFile(src, dest); err != nil {
			return moves, err
		}

		s.Log.WithField(logging.PrefixField, "[+]").Infof("%s → %s", entry.Name(), dest)
		moves = append(moves, Move{entry.Name(), dest})
	}

	return moves, nil
}

func (s *Sweeper) sameDirectory(directory string) (bool, error) {
	dirAbs, err := filepath.Abs(directory)
	if err != nil {
		return false, err
	}

	srcAbs, err := filepath.Abs(s.Source)
	if err != nil {
		return false, err
	}

	if dirAbs == srcAbs {
		return true, nil
	}

	dirInfo, err := os.Stat(dirAbs)
	if err != nil {
		return false, err
	}
	srcInfo, err := os.Stat(srcAbs)
	if err != nil {
		return false, err
	}
	return os.SameFile(dirInfo, srcInfo), nil
}

func (s *Sweeper) excluded(name string) bool {
	for _, pattern := range s.Exclude {
		if glob.Glob(pattern, name) {
			return true
		}
	}
	return false
}

// Renames when possible, copying and removing the original when src and
// dest are on different filesystems.
func moveFile(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil || !isCrossDevice(err) {
		return err
	}

	if err := copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
