package core

// pipeline.go implements the row-level conform transform.
//
// Every extracted row passes through the same fixed stage order:
//
//  1. SmashCase:    lower-case all keys
//  2. MergeStreet:  only when the conform has merge
//  3. SplitAddress: only when the conform has split
//  4. ConvertToOut: project onto LON, LAT, NUMBER, STREET
//  5. Canonicalize: trim NUMBER, expand STREET
//
// Stages take a row value and return a new one. Merge and split may both
// run; split then sees merge's auto_street only if it names that field.

import (
	"strings"

	"github.com/JonMunkholm/addrconform/internal/core/streets"
)

// Synthesized field names written by the merge and split stages.
const (
	AutoStreet = "auto_street"
	AutoNumber = "auto_number"
)

// Coordinate columns of the intermediate CSV, before and after SmashCase.
const (
	ColumnX = "X"
	ColumnY = "Y"
)

// OutputHeader is the canonical output schema, in order.
var OutputHeader = []string{"LON", "LAT", "NUMBER", "STREET"}

// OutRow is the result of schema projection. A nil pointer is a lookup miss.
type OutRow struct {
	Lon    *string
	Lat    *string
	Number *string
	Street *string
}

// Record is one canonical output row.
type Record struct {
	Lon    string
	Lat    string
	Number string
	Street string
}

// Values returns the record in OutputHeader order.
func (r Record) Values() []string {
	return []string{r.Lon, r.Lat, r.Number, r.Street}
}

// Expand is the street canonicalizer used by a Pipeline.
type Expand func(string) string

// Pipeline applies a normalized conform spec to rows.
type Pipeline struct {
	spec   ConformSpec
	expand Expand
}

// NewPipeline returns a pipeline for spec. The spec is normalized here, so
// callers may pass it as loaded. A nil expand uses streets.Expand.
func NewPipeline(spec ConformSpec, expand Expand) *Pipeline {
	if expand == nil {
		expand = streets.Expand
	}
	return &Pipeline{spec: spec.Normalize(), expand: expand}
}

// Spec returns the normalized spec.
func (p *Pipeline) Spec() ConformSpec {
	return p.spec
}

// Transform runs every stage on row.
func (p *Pipeline) Transform(row Row) (Record, error) {
	row = SmashCase(row)

	var err error
	if p.spec.Merge != nil {
		if row, err = MergeStreet(p.spec, row); err != nil {
			return Record{}, err
		}
	}
	if p.spec.Split != "" {
		if row, err = SplitAddress(p.spec, row); err != nil {
			return Record{}, err
		}
	}

	return Canonicalize(ConvertToOut(p.spec, row), p.expand)
}

// MergeStreet joins the merge fields with single spaces into auto_street.
func MergeStreet(spec ConformSpec, row Row) (Row, error) {
	parts := make([]string, len(spec.Merge))
	for i, field := range spec.Merge {
		v, ok := row.Get(field)
		if !ok {
			return Row{}, &MissingFieldError{Stage: "merge", Field: field}
		}
		parts[i] = v
	}
	return row.With(AutoStreet, strings.Join(parts, " ")), nil
}

// SplitAddress splits the split field at its first space: the left part
// becomes auto_number, the remainder auto_street ("" when there is no space).
func SplitAddress(spec ConformSpec, row Row) (Row, error) {
	v, ok := row.Get(spec.Split)
	if !ok {
		return Row{}, &MissingFieldError{Stage: "split", Field: spec.Split}
	}
	number, street, _ := strings.Cut(v, " ")
	return row.With(AutoNumber, number).With(AutoStreet, street), nil
}

// ConvertToOut projects a case-smashed row onto the output schema.
// The lat/lon spec fields were consumed during extraction, so coordinates
// always come from x and y.
func ConvertToOut(spec ConformSpec, row Row) OutRow {
	return OutRow{
		Lon:    lookup(row, strings.ToLower(ColumnX)),
		Lat:    lookup(row, strings.ToLower(ColumnY)),
		Number: lookup(row, spec.Number),
		Street: lookup(row, spec.Street),
	}
}

func lookup(row Row, name string) *string {
	if name == "" {
		return nil
	}
	v, ok := row.Get(name)
	if !ok {
		return nil
	}
	return &v
}

// Canonicalize trims NUMBER and expands STREET. Missing coordinates become
// empty strings; a missing NUMBER or STREET is an error.
func Canonicalize(out OutRow, expand Expand) (Record, error) {
	if out.Number == nil {
		return Record{}, &MissingRequiredFieldError{Field: "NUMBER"}
	}
	if out.Street == nil {
		return Record{}, &MissingRequiredFieldError{Field: "STREET"}
	}
	if expand == nil {
		expand = streets.Expand
	}
	return Record{
		Lon:    deref(out.Lon),
		Lat:    deref(out.Lat),
		Number: strings.TrimSpace(*out.Number),
		Street: expand(*out.Street),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
