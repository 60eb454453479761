package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxSize    = 50 * 1024 * 1024
	defaultMaxAge     = 7 * 24 * time.Hour
	defaultMaxBackups = 3
)

// rotatingWriter is an io.Writer that moves the current file aside once it
// grows past maxSize and prunes old backups.
type rotatingWriter struct {
	path       string
	maxSize    int64
	maxAge     time.Duration
	maxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

func newRotatingWriter(path string, cfg *RotationConfig) (io.Writer, error) {
	w := &rotatingWriter{
		path:       path,
		maxSize:    defaultMaxSize,
		maxAge:     defaultMaxAge,
		maxBackups: defaultMaxBackups,
	}

	if cfg != nil {
		if cfg.MaxSize != "" {
			size, err := parseSize(cfg.MaxSize)
			if err != nil {
				return nil, fmt.Errorf("invalid max_size: %w", err)
			}
			w.maxSize = size
		}
		if cfg.MaxAge != "" {
			age, err := parseDuration(cfg.MaxAge)
			if err != nil {
				return nil, fmt.Errorf("invalid max_age: %w", err)
			}
			w.maxAge = age
		}
		if cfg.MaxBackups > 0 {
			w.maxBackups = cfg.MaxBackups
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.prune()

	return w, nil
}

// Write implements io.Writer.
func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	if w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the underlying file.
func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *rotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}

	if err := os.Rename(w.path, w.backupName(time.Now())); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	if err := w.open(); err != nil {
		return err
	}

	go w.prune()
	return nil
}

func (w *rotatingWriter) backupName(at time.Time) string {
	ext := filepath.Ext(w.path)
	return fmt.Sprintf("%s.%s%s", strings.TrimSuffix(w.path, ext), at.Format("20060102-150405"), ext)
}

// prune deletes backups older than maxAge and keeps at most maxBackups.
func (w *rotatingWriter) prune() {
	ext := filepath.Ext(w.path)
	matches, err := filepath.Glob(strings.TrimSuffix(w.path, ext) + ".*" + ext)
	if err != nil {
		return
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	var kept []backup
	now := time.Now()

	for _, m := range matches {
		if m == w.path {
			continue
		}
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > w.maxAge {
			_ = os.Remove(m)
			continue
		}
		kept = append(kept, backup{path: m, modTime: info.ModTime()})
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].modTime.Before(kept[j].modTime) })
	for len(kept) > w.maxBackups {
		_ = os.Remove(kept[0].path)
		kept = kept[1:]
	}
}

// parseSize parses "512", "10KB", "50MB" or "1GB" into bytes.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"KB", 1 << 10},
		{"MB", 1 << 20},
		{"GB", 1 << 30},
		{"B", 1},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.mult
			s = strings.TrimSuffix(s, unit.suffix)
			break
		}
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return n * multiplier, nil
}

// parseDuration accepts day ("7d") and week ("2w") suffixes on top of time.ParseDuration.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	switch {
	case strings.HasSuffix(s, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	case strings.HasSuffix(s, "w"):
		weeks, err := strconv.Atoi(strings.TrimSuffix(s, "w"))
		if err != nil {
			return 0, err
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
