package hostsfile

import (
	"context"
	"errors"
)

var ErrNothingToBackup = errors.New("hosts file does not exist, nothing to back up")

// Where the hosts file text lives. Read returns an error wrapping
// os.ErrNotExist when there is no file yet.
//
// A rewrite replaces the whole file. An append adds line to the end exactly
// as given, without fixing up a missing newline before it.
type Store interface {
	Name() string

	Read(ctx context.Context) (string, error)
	Rewrite(ctx context.Context, contents string) error
	Append(ctx context.Context, line string) error

	// Copies the current contents next to the original and returns where the
	// copy was written.
	Backup(ctx context.Context) (string, error)

	// Holds the store exclusively until the returned func is called.
	Lock(ctx context.Context) (func() error, error)
}
