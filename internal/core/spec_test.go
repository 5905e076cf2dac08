package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseSourceDefinition(t *testing.T) {
	data := []byte(`{
		"compression": "zip",
		"conform": {
			"type": "csv",
			"lat": "Lat", "lon": "LON",
			"number": "NUMBER", "street": "Street",
			"merge": ["Name", "Type"],
			"csvsplit": ";",
			"skiplines": 1
		}
	}`)

	def, err := ParseSourceDefinition(data)
	if err != nil {
		t.Fatalf("ParseSourceDefinition() error = %v", err)
	}
	if def.Compression != "zip" {
		t.Errorf("Compression = %q, want %q", def.Compression, "zip")
	}

	spec, err := def.Spec()
	if err != nil {
		t.Fatalf("Spec() error = %v", err)
	}
	if spec.Type != TypeCSV {
		t.Errorf("Type = %q, want %q", spec.Type, TypeCSV)
	}
	if spec.SkipLines != 1 {
		t.Errorf("SkipLines = %d, want 1", spec.SkipLines)
	}
	if spec.Delimiter() != ';' {
		t.Errorf("Delimiter() = %q, want ';'", spec.Delimiter())
	}
}

func TestParseSourceDefinition_Invalid(t *testing.T) {
	if _, err := ParseSourceDefinition([]byte(`{"conform":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestSourceDefinition_MissingConform(t *testing.T) {
	def, err := ParseSourceDefinition([]byte(`{"type": "http"}`))
	if err != nil {
		t.Fatalf("ParseSourceDefinition() error = %v", err)
	}
	if _, err := def.Spec(); !errors.Is(err, ErrMissingConform) {
		t.Errorf("Spec() error = %v, want ErrMissingConform", err)
	}
}

func TestConformSpec_Normalize(t *testing.T) {
	spec := ConformSpec{
		Type:   TypeShapefile,
		File:   "Parcels.SHP",
		Lat:    "LAT",
		Lon:    "Lon",
		Street: "STREET",
		Number: "NUM",
		Merge:  []string{"PreDir", "NAME"},
		Split:  "ADDRESS",
	}
	got := spec.Normalize()

	if got.Street != "street" || got.Number != "num" || got.Split != "address" {
		t.Errorf("Normalize() = %+v", got)
	}
	if got.Lat != "lat" || got.Lon != "lon" {
		t.Errorf("Normalize() lat/lon = %q/%q", got.Lat, got.Lon)
	}
	if !reflect.DeepEqual(got.Merge, []string{"predir", "name"}) {
		t.Errorf("Normalize() merge = %v", got.Merge)
	}
	if got.File != "Parcels.SHP" {
		t.Errorf("Normalize() changed file to %q", got.File)
	}
	if spec.Merge[0] != "PreDir" {
		t.Error("Normalize() modified the receiver's merge slice")
	}
}

func TestConformSpec_NormalizeKeepsNilMerge(t *testing.T) {
	if got := (ConformSpec{Type: TypeCSV}).Normalize(); got.Merge != nil {
		t.Errorf("Merge = %v, want nil", got.Merge)
	}
}

func TestConformSpec_Validate(t *testing.T) {
	tests := []struct {
		typ     SourceType
		wantErr bool
	}{
		{TypeShapefile, false},
		{TypeShapefilePolygon, false},
		{TypeGeoJSON, false},
		{TypeCSV, false},
		{"broken", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			err := ConformSpec{Type: tt.typ}.Validate()
			if tt.wantErr && !errors.Is(err, ErrUnsupportedSourceType) {
				t.Errorf("Validate() = %v, want ErrUnsupportedSourceType", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestConformSpec_CheckSupported(t *testing.T) {
	tests := []struct {
		name    string
		spec    ConformSpec
		wantErr bool
	}{
		{"plain geojson", ConformSpec{Type: TypeGeoJSON, Number: "n", Street: "s"}, false},
		{"csv with coordinates", ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x"}, false},
		{"csv without coordinates", ConformSpec{Type: TypeCSV}, true},
		{"advanced merge", ConformSpec{Type: TypeGeoJSON, AdvancedMerge: []byte(`{"a":1}`)}, true},
		{"headers", ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x", Headers: []byte(`-1`)}, true},
		{"negative skiplines", ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x", SkipLines: -1}, true},
		{"multi-char csvsplit", ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x", CSVSplit: ";;"}, true},
		{"pipe csvsplit", ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x", CSVSplit: "|"}, false},
		{"multibyte csvsplit", ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x", CSVSplit: "、"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.CheckSupported()
			if tt.wantErr && !errors.Is(err, ErrUnsupportedConfiguration) {
				t.Errorf("CheckSupported() = %v, want ErrUnsupportedConfiguration", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("CheckSupported() = %v, want nil", err)
			}
		})
	}
}

