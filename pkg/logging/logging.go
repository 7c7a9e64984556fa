// Package logging sets up logrus to print the bracketed status lines both
// command line tools use: "[*]" for progress, "[-]" for problems.
package logging

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"
)

// Set on an entry to replace the level's usual prefix, e.g. "[+]".
const PrefixField = "prefix"

type PrefixFormatter struct{}

func (f *PrefixFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	prefix := levelPrefix(entry.Level)
	if p, ok := entry.Data[PrefixField].(string); ok {
		prefix = p
	}

	var b bytes.Buffer
	b.WriteString(prefix)
	b.WriteString(" ")
	b.WriteString(entry.Message)
	b.WriteString("\n")
	return b.Bytes(), nil
}

func levelPrefix(level logrus.Level) string {
	switch level {
	case logrus.InfoLevel:
		return "[*]"
	case logrus.DebugLevel, logrus.TraceLevel:
		return "[.]"
	default:
		return "[-]"
	}
}

func NewLogger(out io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&PrefixFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
