package core

// transform.go streams an intermediate CSV through the row pipeline.
//
// Exactly one input row is held in memory at a time. The input header is
// used only for lookups; the output always has the OutputHeader columns in
// order. A row failing any stage aborts the whole file, and because output
// goes through writeFileAtomic, no half-written destination is left behind.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// TransformResult summarizes a finished transform.
type TransformResult struct {
	Rows      int
	BytesRead int64
	Elapsed   time.Duration
}

// TransformToOutCSV applies spec to every row of the intermediate CSV at
// extractPath and writes the canonical CSV to destPath.
func TransformToOutCSV(spec ConformSpec, extractPath, destPath string) (TransformResult, error) {
	return NewPipeline(spec, nil).TransformFile(extractPath, destPath)
}

// TransformFile streams extractPath through the pipeline into destPath.
func (p *Pipeline) TransformFile(extractPath, destPath string) (TransformResult, error) {
	start := time.Now()

	in, err := os.Open(extractPath)
	if err != nil {
		return TransformResult{}, fmt.Errorf("open extracted csv: %w", err)
	}
	defer in.Close()

	counter := NewCountingReader(in)
	var rows int
	err = writeFileAtomic(destPath, func(w io.Writer) error {
		var werr error
		rows, werr = p.TransformStream(counter, w)
		return werr
	})
	if err != nil {
		return TransformResult{}, err
	}

	result := TransformResult{
		Rows:      rows,
		BytesRead: counter.BytesRead,
		Elapsed:   time.Since(start),
	}
	slog.Debug("transformed extracted csv",
		"path", extractPath,
		"rows", result.Rows,
		"duration_ms", result.Elapsed.Milliseconds(),
	)
	return result, nil
}

// TransformStream reads an intermediate CSV from r and writes canonical CSV
// to w. A leading BOM is dropped and invalid UTF-8 replaced. It returns the
// number of data rows written.
func (p *Pipeline) TransformStream(r io.Reader, w io.Writer) (int, error) {
	src, err := NewDecodingReader(r, "")
	if err != nil {
		return 0, err
	}
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	writer := csv.NewWriter(w)
	if err := writer.Write(OutputHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		writer.Flush()
		return 0, writer.Error()
	}
	if err != nil {
		return 0, fmt.Errorf("invalid csv header: %w", err)
	}
	header = append([]string(nil), header...)

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("invalid csv: %w", err)
		}

		out, err := p.Transform(NewRow(header, record))
		if err != nil {
			line, _ := reader.FieldPos(0)
			return rows, &RowError{Line: line, Err: err}
		}
		if err := writer.Write(out.Values()); err != nil {
			return rows, fmt.Errorf("write row: %w", err)
		}
		rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return rows, fmt.Errorf("flush output: %w", err)
	}
	return rows, nil
}
