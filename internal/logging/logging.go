package logging

import (
	"context"       // Pruner lifetime
	"os"            // Files and directories
	"path/filepath" // Path joins
	"strings"       // Extension checks
	"sync"          // Serialized hook writes
	"time"          // Retention

	"github.com/sirupsen/logrus" // Logging library
)

// Log file names inside the log directory
const (
	AccessLog = "access.log"
	ErrorLog  = "error.log"
)

// Retention is how long log files are kept
const Retention = 30 * 24 * time.Hour

// ErrorFileHook appends error-level entries as JSON lines to a file
type ErrorFileHook struct {
	mu        sync.Mutex
	file      *os.File
	formatter logrus.Formatter
}

// NewErrorFileHook opens (or creates) path for appending
func NewErrorFileHook(path string) (*ErrorFileHook, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &ErrorFileHook{file: f, formatter: &logrus.JSONFormatter{}}, nil
}

// Levels implements logrus.Hook
func (h *ErrorFileHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

// Fire implements logrus.Hook
func (h *ErrorFileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.file.Write(line)
	return err
}

// Close closes the underlying file
func (h *ErrorFileHook) Close() error {
	return h.file.Close()
}

// Setup configures the standard logrus logger, installs the error file hook in dir
// and returns the opened access log
func Setup(dir string, isProd bool) (*os.File, *ErrorFileHook, error) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stdout)
	if isProd {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	hook, err := NewErrorFileHook(filepath.Join(dir, ErrorLog))
	if err != nil {
		return nil, nil, err
	}
	logrus.AddHook(hook)

	access, err := os.OpenFile(filepath.Join(dir, AccessLog), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		hook.Close()
		return nil, nil, err
	}
	return access, hook, nil
}

// Prune removes *.log files in dir last modified before now minus maxAge and returns how many it removed
func Prune(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				logrus.WithFields(logrus.Fields{"file": e.Name(), "error": err.Error()}).Warn("Failed to prune log file")
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// RunPruner prunes dir at start and then once a day until ctx is done
func RunPruner(ctx context.Context, dir string) {
	pruneOnce(dir, time.Now())
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			pruneOnce(dir, now)
		}
	}
}

func pruneOnce(dir string, now time.Time) {
	if n, err := Prune(dir, Retention, now); err != nil {
		logrus.WithError(err).Warn("Log pruning failed")
	} else if n > 0 {
		logrus.WithField("removed", n).Info("Old log files pruned")
	}
}
