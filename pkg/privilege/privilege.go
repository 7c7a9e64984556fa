package privilege

import (
	"errors"
)

var ErrSudoNotFound = errors.New("sudo is required to edit this file but could not be found")

// Something that can make sure the current process runs as the superuser.
// Escalate either returns with the process already privileged, replaces the
// process with a privileged copy of itself, or fails.
type Escalator interface {
	Escalate() error
}

// Does nothing; used when elevation has been turned off.
type NoopEscalator struct{}

func (NoopEscalator) Escalate() error {
	return nil
}
