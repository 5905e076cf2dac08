package core

// spec.go defines the per-source conform configuration.
//
// A source definition is the JSON document describing one address source.
// Only its "conform" object and the optional "compression" key matter here:
//
//	{
//	  "compression": "zip",
//	  "conform": {
//	    "type": "shapefile",
//	    "file": "addresses.shp",
//	    "number": "HOUSE_NO",
//	    "street": "auto_street",
//	    "merge": ["STREET_NAM", "STREET_TYP"]
//	  }
//	}

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// SourceType selects the extraction strategy for a source.
type SourceType string

const (
	TypeShapefile        SourceType = "shapefile"
	TypeShapefilePolygon SourceType = "shapefile-polygon"
	TypeGeoJSON          SourceType = "geojson"
	TypeCSV              SourceType = "csv"
)

// Valid reports whether t is one of the recognized source types.
func (t SourceType) Valid() bool {
	switch t {
	case TypeShapefile, TypeShapefilePolygon, TypeGeoJSON, TypeCSV:
		return true
	default:
		return false
	}
}

// DefaultCSVSplit is the delimiter used when a CSV source sets no csvsplit.
const DefaultCSVSplit = ","

// ConformSpec is the parsed conform section of a source definition.
// Treat it as immutable; Normalize returns a copy.
type ConformSpec struct {
	Type      SourceType `json:"type"`
	File      string     `json:"file,omitempty"`
	Lat       string     `json:"lat,omitempty"`
	Lon       string     `json:"lon,omitempty"`
	Street    string     `json:"street,omitempty"`
	Number    string     `json:"number,omitempty"`
	Merge     []string   `json:"merge,omitempty"`
	Split     string     `json:"split,omitempty"`
	CSVSplit  string     `json:"csvsplit,omitempty"`
	Encoding  string     `json:"encoding,omitempty"`
	SkipLines int        `json:"skiplines,omitempty"`

	// Keys we recognize but cannot process. Presence is an error reported
	// before any row is touched.
	AdvancedMerge json.RawMessage `json:"advanced_merge,omitempty"`
	Headers       json.RawMessage `json:"headers,omitempty"`
}

// SourceDefinition is a whole source JSON document.
type SourceDefinition struct {
	Compression string       `json:"compression,omitempty"`
	Conform     *ConformSpec `json:"conform,omitempty"`
}

// ParseSourceDefinition decodes a source definition document.
func ParseSourceDefinition(data []byte) (SourceDefinition, error) {
	var def SourceDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return SourceDefinition{}, fmt.Errorf("parse source definition: %w", err)
	}
	return def, nil
}

// Spec returns the conform spec, or ErrMissingConform.
func (d SourceDefinition) Spec() (ConformSpec, error) {
	if d.Conform == nil {
		return ConformSpec{}, ErrMissingConform
	}
	return *d.Conform, nil
}

// Normalize returns a copy of the spec with every field-name reference
// lower-cased, so lookups against case-smashed rows line up.
func (c ConformSpec) Normalize() ConformSpec {
	out := c
	out.Split = strings.ToLower(c.Split)
	out.Lat = strings.ToLower(c.Lat)
	out.Lon = strings.ToLower(c.Lon)
	out.Street = strings.ToLower(c.Street)
	out.Number = strings.ToLower(c.Number)
	if c.Merge != nil {
		out.Merge = make([]string, len(c.Merge))
		for i, f := range c.Merge {
			out.Merge[i] = strings.ToLower(f)
		}
	}
	return out
}

// Validate returns ErrUnsupportedSourceType when the type is absent or
// unrecognized.
func (c ConformSpec) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("%w: type is missing", ErrUnsupportedSourceType)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedSourceType, c.Type)
	}
	return nil
}

// CheckSupported rejects configurations we recognize but cannot run.
// It is called before extraction starts so nothing fails mid-file.
func (c ConformSpec) CheckSupported() error {
	if len(c.AdvancedMerge) > 0 {
		return fmt.Errorf("%w: advanced_merge is not implemented", ErrUnsupportedConfiguration)
	}
	if len(c.Headers) > 0 {
		return fmt.Errorf("%w: headers is not implemented", ErrUnsupportedConfiguration)
	}
	if c.SkipLines < 0 {
		return fmt.Errorf("%w: skiplines must be non-negative", ErrUnsupportedConfiguration)
	}
	if c.CSVSplit != "" && utf8.RuneCountInString(c.CSVSplit) != 1 {
		return fmt.Errorf("%w: csvsplit must be a single character, got %q", ErrUnsupportedConfiguration, c.CSVSplit)
	}
	if c.Type == TypeCSV && (c.Lat == "" || c.Lon == "") {
		return fmt.Errorf("%w: csv sources need lat and lon", ErrUnsupportedConfiguration)
	}
	return nil
}

// Delimiter returns the CSV delimiter rune.
func (c ConformSpec) Delimiter() rune {
	s := c.CSVSplit
	if s == "" {
		s = DefaultCSVSplit
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
