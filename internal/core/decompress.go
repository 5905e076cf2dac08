package core

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Decompressor turns downloaded files into the candidate paths handed to
// SelectSource.
type Decompressor interface {
	Decompress(paths []string, workdir string) ([]string, error)
}

// DecompressorFor returns the decompressor for a source's compression
// value. Empty means no compression.
func DecompressorFor(compression string) (Decompressor, error) {
	switch strings.ToLower(compression) {
	case "":
		return NoopDecompressor{}, nil
	case "zip":
		return ZipDecompressor{}, nil
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupportedConfiguration, compression)
	}
}

// NoopDecompressor passes paths through unchanged.
type NoopDecompressor struct{}

func (NoopDecompressor) Decompress(paths []string, _ string) ([]string, error) {
	return append([]string(nil), paths...), nil
}

// ZipDecompressor extracts every member of every archive into
// <workdir>/unzipped, returning the extracted files in archive order.
type ZipDecompressor struct{}

func (ZipDecompressor) Decompress(paths []string, workdir string) ([]string, error) {
	dest := filepath.Join(workdir, "unzipped")
	if err := mkdirAll(dest); err != nil {
		return nil, err
	}

	var out []string
	for _, p := range paths {
		files, err := unzip(p, dest)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecompression, filepath.Base(p), err)
		}
		out = append(out, files...)
	}
	slog.Debug("decompressed source", "archives", len(paths), "files", len(out))
	return out, nil
}

func unzip(archive, dest string) ([]string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, f := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return nil, fmt.Errorf("member %q escapes extraction directory", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := mkdirAll(target); err != nil {
				return nil, err
			}
			continue
		}
		if err := mkdirAll(filepath.Dir(target)); err != nil {
			return nil, err
		}
		if err := extractMember(f, target); err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		out = append(out, target)
	}
	return out, nil
}

func extractMember(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	w, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
