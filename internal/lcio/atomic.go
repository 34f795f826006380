package lcio

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes dest through a temporary file in the same directory
// and renames it into place, so readers never observe a partial file.
func writeAtomic(dest string, fill func(w *bufio.Writer) error) (err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = fill(bw); err != nil {
		return err
	}

	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", dest, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}

	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", dest, err)
	}

	if err = os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename into %s: %w", dest, err)
	}

	return nil
}
