//go:build !unix

package hostsfile

import (
	"io/fs"
	"os"
)

func chownLike(f *os.File, like fs.FileInfo) error {
	return nil
}
