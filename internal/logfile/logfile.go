// Package logfile keeps the append-only request log that /logs reads back.
package logfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const TimestampFormat = "2006-01-02 15:04:05"

// Hook mirrors every logrus entry into a file as one "[timestamp] message" line.
type Hook struct {
	mu   sync.Mutex
	file *os.File
}

// NewHook opens (or creates) path for appending.
func NewHook(path string) (*Hook, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Hook{file: f}, nil
}

func (h *Hook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *Hook) Fire(entry *logrus.Entry) error {
	line := FormatLine(entry.Time, entry.Level, entry.Message, entry.Data)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.file, line)
	return err
}

func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.file.Close()
}

// FormatLine renders one log line. Fields are appended as sorted key=value pairs.
func FormatLine(ts time.Time, level logrus.Level, msg string, fields logrus.Fields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s", ts.Format(TimestampFormat), strings.ToUpper(level.String()), msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	b.WriteByte('\n')
	return b.String()
}

// Tail returns the last n lines of the file at path, oldest first.
// A missing file yields no lines rather than an error.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	ring := make([]string, 0, n)
	start := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) < n {
			ring = append(ring, scanner.Text())
			continue
		}
		ring[start] = scanner.Text()
		start = (start + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return append(ring[start:], ring[:start]...), nil
}
