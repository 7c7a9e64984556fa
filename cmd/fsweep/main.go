package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Eagerod/hostsfile-tools/pkg/fsweep"
	"github.com/Eagerod/hostsfile-tools/pkg/interrupt"
	"github.com/Eagerod/hostsfile-tools/pkg/logging"
)

var VersionBuild string = "unstable-dev"

func main() {
	ctx, cancel := interrupt.WithAnySignal(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newCommand(os.Stdin).ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func newCommand(in io.Reader) *cobra.Command {
	var exclude []string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "fsweep <directory>",
		Short: "Move all files from the current directory to a specified directory",
		Long: `fsweep moves every file in the current directory into another directory.
Directories are not moved.

Example:
  fsweep ~/Downloads/sorted
  fsweep ../archive --exclude '*.go' --exclude Makefile`,
		Version:       VersionBuild,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			log := logging.NewLogger(cmd.OutOrStdout(), verbose)

			cwd, err := os.Getwd()
			if err != nil {
				log.Errorf("An error occurred: %v", err)
				return err
			}

			s := fsweep.Sweeper{
				Source:  cwd,
				Exclude: exclude,
				Confirm: func() bool { return confirm(cmd.OutOrStdout(), in) },
				Log:     log,
			}

			_, err = s.Sweep(cmd.Context(), args[0])
			if err != nil {
				reportError(log, err)
			}
			if errors.Is(err, fsweep.ErrCancelled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Glob of file names to leave in place (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

func confirm(out io.Writer, in io.Reader) bool {
	fmt.Fprintln(out, "[-] The specified directory is the current working directory.")
	fmt.Fprint(out, "[?] Are you sure you want to proceed? [y/N]: ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func reportError(log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, fsweep.ErrCancelled):
		log.Info("Operation cancelled")
	case errors.Is(err, fsweep.ErrNotDirectory):
		log.Error("The specified path is not a directory.")
	case errors.Is(err, os.ErrPermission):
		log.Error("Permission denied to access the directory.")
	case errors.Is(err, os.ErrNotExist):
		log.Error("The specified directory does not exist.")
	case errors.Is(err, context.Canceled):
		log.Error("Interrupted, stopping before the next file.")
	default:
		log.Errorf("An error occurred: %v", err)
	}
}
