package core

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// ConformResult describes a successfully conformed source.
type ConformResult struct {
	Path    string
	Rows    int
	Elapsed time.Duration
	Type    SourceType
}

// Conformer runs whole sources through extraction and the row pipeline.
// The zero value is not usable; see NewConformer.
type Conformer struct {
	Extractor *Extractor
	Expand    Expand

	// TempDir holds intermediate extracts. Empty means os.TempDir.
	TempDir string
}

// NewConformer returns a Conformer using ogr2ogr at ogrPath and expand for
// street names (nil means streets.Expand).
func NewConformer(ogrPath string, expand Expand) *Conformer {
	return &Conformer{Extractor: NewExtractor(ogrPath), Expand: expand}
}

var defaultConformer = NewConformer("", nil)

// Conform conforms sourcePath to destPath using the default Conformer.
func Conform(def SourceDefinition, sourcePath, destPath string) (ConformResult, error) {
	return defaultConformer.Conform(def, sourcePath, destPath)
}

// Conform validates def, extracts sourcePath to a temporary intermediate
// CSV and streams it into destPath. Configuration problems are reported
// before any file is read or written. On failure destPath is not created.
func (c *Conformer) Conform(def SourceDefinition, sourcePath, destPath string) (ConformResult, error) {
	spec, err := def.Spec()
	if err != nil {
		return ConformResult{}, err
	}
	if err := spec.Validate(); err != nil {
		slog.Warn("unknown source type", "type", spec.Type)
		return ConformResult{}, err
	}
	if err := spec.CheckSupported(); err != nil {
		return ConformResult{}, err
	}

	var result ConformResult
	err = withTempFile(c.TempDir, "addrconform-extract-*.csv", func(extractPath string) error {
		if err := c.Extractor.ExtractToSourceCSV(spec, sourcePath, extractPath); err != nil {
			return fmt.Errorf("extract %s: %w", filepath.Base(sourcePath), err)
		}
		res, err := NewPipeline(spec, c.Expand).TransformFile(extractPath, destPath)
		if err != nil {
			return fmt.Errorf("transform %s: %w", filepath.Base(sourcePath), err)
		}
		result = ConformResult{
			Path:    destPath,
			Rows:    res.Rows,
			Elapsed: res.Elapsed,
			Type:    spec.Type,
		}
		return nil
	})
	if err != nil {
		return ConformResult{}, err
	}

	slog.Info("conformed source", "source", sourcePath, "dest", destPath, "rows", result.Rows)
	return result, nil
}

// ConvertSource uses the default Conformer.
func ConvertSource(def SourceDefinition, paths []string, workdir string) (ConformResult, error) {
	return defaultConformer.ConvertSource(def, paths, workdir)
}

// ConvertSource picks the authoritative file among paths and conforms it
// into <workdir>/converted/<basename>.csv.
func (c *Conformer) ConvertSource(def SourceDefinition, paths []string, workdir string) (ConformResult, error) {
	spec, err := def.Spec()
	if err != nil {
		return ConformResult{}, err
	}
	if err := spec.Validate(); err != nil {
		return ConformResult{}, err
	}

	source, err := SelectSource(spec, paths)
	if err != nil {
		return ConformResult{}, err
	}

	outDir := filepath.Join(workdir, "converted")
	if err := mkdirAll(outDir); err != nil {
		return ConformResult{}, err
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dest := filepath.Join(outDir, base+".csv")

	slog.Info("converting source", "source", source, "dest", dest)
	return c.Conform(def, source, dest)
}

// PrepareSource decompresses downloaded files per def.Compression and
// returns the candidate paths for ConvertSource.
func PrepareSource(def SourceDefinition, paths []string, workdir string) ([]string, error) {
	d, err := DecompressorFor(def.Compression)
	if err != nil {
		return nil, err
	}
	return d.Decompress(paths, workdir)
}
