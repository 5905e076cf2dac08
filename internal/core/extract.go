package core

// extract.go turns a selected source file into the intermediate CSV: UTF-8,
// a header row, every source attribute, plus X (longitude) and Y (latitude)
// columns in EPSG:4326. Everything downstream reads only that shape.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// GeometryExtractor converts a geometry-backed source (shapefile, GeoJSON)
// into an intermediate CSV with X and Y columns.
type GeometryExtractor interface {
	Extract(sourcePath, destPath string) error
}

// Extractor routes a source to the extraction strategy for its type.
type Extractor struct {
	GeoJSON   GeometryExtractor
	Shapefile GeometryExtractor
}

// NewExtractor returns an Extractor using the native GeoJSON reader and
// ogr2ogr (at ogrPath, or found on PATH when empty) for shapefiles.
func NewExtractor(ogrPath string) *Extractor {
	geo := &GeoJSONExtractor{}
	return &Extractor{
		GeoJSON:   geo,
		Shapefile: &OGRExtractor{Path: ogrPath, GeoJSON: geo},
	}
}

// ExtractToSourceCSV writes the intermediate CSV for sourcePath to extractPath.
func (e *Extractor) ExtractToSourceCSV(spec ConformSpec, sourcePath, extractPath string) error {
	switch spec.Type {
	case TypeShapefile, TypeShapefilePolygon:
		if e.Shapefile == nil {
			return fmt.Errorf("%w: no shapefile extractor configured", ErrUnsupportedConfiguration)
		}
		slog.Info("converting a layer to CSV", "path", sourcePath, "type", spec.Type)
		return e.Shapefile.Extract(sourcePath, extractPath)
	case TypeGeoJSON:
		if e.GeoJSON == nil {
			return fmt.Errorf("%w: no geojson extractor configured", ErrUnsupportedConfiguration)
		}
		slog.Info("converting a layer to CSV", "path", sourcePath, "type", spec.Type)
		return e.GeoJSON.Extract(sourcePath, extractPath)
	case TypeCSV:
		return CSVSourceToCSV(spec, sourcePath, extractPath)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedSourceType, spec.Type)
	}
}

// CSVSourceToCSV converts a delimited-text source into the intermediate CSV.
// The lat and lon columns (matched case-insensitively) are removed from
// their positions and re-emitted as trailing X and Y columns.
func CSVSourceToCSV(spec ConformSpec, sourcePath, destPath string) error {
	slog.Info("converting source CSV", "path", sourcePath)

	in, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source csv: %w", err)
	}
	defer in.Close()

	src, err := NewSourceReader(in, spec.Encoding, spec.SkipLines)
	if err != nil {
		return err
	}

	return writeFileAtomic(destPath, func(w io.Writer) error {
		return extractCSV(spec, src, w)
	})
}

func extractCSV(spec ConformSpec, r io.Reader, w io.Writer) error {
	reader := csv.NewReader(r)
	reader.Comma = spec.Delimiter()
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("empty file: source csv has no header")
	}
	if err != nil {
		return fmt.Errorf("invalid csv header: %w", err)
	}

	latIdx, lonIdx := indexOfFold(header, spec.Lat), indexOfFold(header, spec.Lon)
	if latIdx < 0 {
		return &MissingFieldError{Stage: "extract", Field: spec.Lat}
	}
	if lonIdx < 0 {
		return &MissingFieldError{Stage: "extract", Field: spec.Lon}
	}

	keep := make([]int, 0, len(header))
	outHeader := make([]string, 0, len(header))
	for i, name := range header {
		if i == latIdx || i == lonIdx {
			continue
		}
		keep = append(keep, i)
		outHeader = append(outHeader, name)
	}
	outHeader = append(outHeader, ColumnX, ColumnY)

	writer := csv.NewWriter(w)
	if err := writer.Write(outHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	out := make([]string, len(outHeader))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("invalid csv: %w", err)
		}

		for j, i := range keep {
			out[j] = cell(record, i)
		}
		out[len(out)-2] = cell(record, lonIdx)
		out[len(out)-1] = cell(record, latIdx)

		if err := writer.Write(out); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// indexOfFold returns the position of name in header, ignoring case, or -1.
func indexOfFold(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// cell returns record[i], or "" for short records.
func cell(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
