// Package logger provides the process-wide logger for the loam CLI.
// When verbose mode is enabled via the --verbose flag, debug, info and warn
// messages are printed to stderr to help users follow an import. Errors are
// always printed.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields are structured key/value pairs attached to a log entry.
type Fields = logrus.Fields

var (
	mu      sync.RWMutex
	verbose bool
	format  = "text"
	log     = newLogger()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&textFormatter{})
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.ErrorLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetFormat selects "text" ([LEVEL] message) or "json" output.
func SetFormat(f string) error {
	mu.Lock()
	defer mu.Unlock()
	switch f {
	case "text", "":
		format = "text"
		log.SetFormatter(&textFormatter{})
	case "json":
		format = "json"
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", f)
	}
	return nil
}

// Debug prints a message if verbose mode is enabled.
func Debug(fmtStr string, args ...any) {
	log.Debugf(fmtStr, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(fmtStr string, args ...any) {
	log.Infof(fmtStr, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(fmtStr string, args ...any) {
	log.Warnf(fmtStr, args...)
}

// Error prints an error message.
func Error(fmtStr string, args ...any) {
	log.Errorf(fmtStr, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	if !IsVerbose() {
		return
	}
	mu.RLock()
	f := format
	mu.RUnlock()
	if f == "json" {
		log.WithField("section", name).Info(name)
		return
	}
	fmt.Fprintf(log.Out, "\n=== %s ===\n", name)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// textFormatter renders "[LEVEL] message key=value ...".
type textFormatter struct{}

func (f *textFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("[")
	b.WriteString(strings.ToUpper(levelName(e.Level)))
	b.WriteString("] ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelName(l logrus.Level) string {
	if l == logrus.WarnLevel {
		return "warn"
	}
	return l.String()
}
