//go:build unix

package hostsfile

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// Gives f the owner and group of like. Only root can hand a file to another
// user, so anyone else keeps their own ownership of the new file.
func chownLike(f *os.File, like fs.FileInfo) error {
	want, ok := like.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if have, ok := info.Sys().(*syscall.Stat_t); ok && have.Uid == want.Uid && have.Gid == want.Gid {
		return nil
	}

	err = f.Chown(int(want.Uid), int(want.Gid))
	if errors.Is(err, fs.ErrPermission) && os.Geteuid() != 0 {
		return nil
	}
	return err
}
