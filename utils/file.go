package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// EnsureDirs creates all directories with 0o750 permissions.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// TailLines returns the last n lines of the file at path.
// A missing or unreadable file yields a single explanatory line, since the
// result only ever feeds a diagnostic.
func TailLines(path string, n int) []string {
	f, err := os.Open(path) //nolint:gosec // emulator log under instance root
	if err != nil {
		return []string{fmt.Sprintf("(log %s unavailable: %v)", path, err)}
	}
	defer f.Close() //nolint:errcheck
	return tail(f, n)
}

func tail(r io.Reader, n int) []string {
	if n <= 0 {
		return nil
	}
	ring := make([]string, 0, n)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20) //nolint:mnd
	for sc.Scan() {
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, sc.Text())
	}
	return ring
}

// ListDir describes the entries of dir, one per line, for failure diagnostics.
// When dir itself is missing, the nearest existing ancestor is listed instead.
func ListDir(dir string) []string {
	target := dir
	var lines []string
	for {
		entries, err := os.ReadDir(target)
		if err == nil {
			if target != dir {
				lines = append(lines, fmt.Sprintf("%s does not exist; nearest existing ancestor is %s", dir, target))
			}
			lines = append(lines, fmt.Sprintf("contents of %s:", target))
			if len(entries) == 0 {
				lines = append(lines, "  (empty)")
			}
			for _, e := range entries {
				lines = append(lines, "  "+describeEntry(e))
			}
			return lines
		}
		parent := filepath.Dir(target)
		if parent == target {
			return append(lines, fmt.Sprintf("cannot list %s: %v", dir, err))
		}
		target = parent
	}
}

func describeEntry(e os.DirEntry) string {
	name := e.Name()
	if e.IsDir() {
		name += "/"
	}
	info, err := e.Info()
	if err != nil {
		return name
	}
	return fmt.Sprintf("%-40s %10d  %s", name, info.Size(), info.ModTime().Format(time.DateTime))
}
