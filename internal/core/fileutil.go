package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeFileAtomic streams output into a temp file next to destPath and
// renames it into place only after write succeeds. On any failure the temp
// file is removed and destPath is left untouched.
func writeFileAtomic(destPath string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(destPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	// CreateTemp uses 0600; outputs are ordinary files.
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err = os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// withTempFile creates an empty temp file, hands its path to fn, and
// removes it afterwards whether fn succeeded or not.
func withTempFile(dir, pattern string, fn func(path string) error) error {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	return fn(path)
}

// mkdirAll creates path and any parents, tolerating an existing directory.
func mkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}
