//go:build unix

package privilege

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Re-runs the current executable under sudo with the same arguments and
// environment when not already root.
type SudoEscalator struct {
	Args []string
	Env  []string

	geteuid  func() int
	lookPath func(file string) (string, error)
	execve   func(argv0 string, argv []string, envv []string) error
}

func NewSudoEscalator() *SudoEscalator {
	return &SudoEscalator{
		Args:     os.Args[1:],
		Env:      os.Environ(),
		geteuid:  unix.Geteuid,
		lookPath: exec.LookPath,
		execve:   unix.Exec,
	}
}

func (se *SudoEscalator) Escalate() error {
	if se.geteuid() == 0 {
		return nil
	}

	sudo, err := se.lookPath("sudo")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSudoNotFound, err)
	}

	self, err := os.Executable()
	if err != nil {
		return err
	}

	argv := append([]string{"sudo", self}, se.Args...)
	// Only returns on failure.
	if err := se.execve(sudo, argv, se.Env); err != nil {
		return fmt.Errorf("re-running under sudo: %w", err)
	}
	return nil
}
