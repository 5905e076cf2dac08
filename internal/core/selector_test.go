package core

import (
	"errors"
	"testing"
)

func TestSelectSource(t *testing.T) {
	tests := []struct {
		name    string
		spec    ConformSpec
		paths   []string
		want    string
		wantErr error
	}{
		{
			name:  "single shapefile among sidecars",
			spec:  ConformSpec{Type: TypeShapefile},
			paths: []string{"a/foo.dbf", "a/foo.shp", "a/foo.prj"},
			want:  "a/foo.shp",
		},
		{
			name:  "uppercase shapefile extension",
			spec:  ConformSpec{Type: TypeShapefilePolygon},
			paths: []string{"xyzzy/FOO.SHP", "xyzzy/FOO.DBF"},
			want:  "xyzzy/FOO.SHP",
		},
		{
			name:    "several shapefiles without file",
			spec:    ConformSpec{Type: TypeShapefile},
			paths:   []string{"foo.shp", "bar.shp"},
			wantErr: ErrSourceAmbiguous,
		},
		{
			name:  "several shapefiles with file",
			spec:  ConformSpec{Type: TypeShapefile, File: "foo.shp"},
			paths: []string{"bar.shp", "foo.shp"},
			want:  "foo.shp",
		},
		{
			name:  "file matches case-insensitively",
			spec:  ConformSpec{Type: TypeShapefile, File: "foo.shp"},
			paths: []string{"dir/BAR.SHP", "dir/FOO.SHP"},
			want:  "dir/FOO.SHP",
		},
		{
			name:    "file names an absent shapefile",
			spec:    ConformSpec{Type: TypeShapefile, File: "baz.shp"},
			paths:   []string{"foo.shp", "bar.shp"},
			wantErr: ErrSourceNotFound,
		},
		{
			name:    "no shapefile",
			spec:    ConformSpec{Type: TypeShapefile},
			paths:   []string{"readme.txt"},
			wantErr: ErrSourceNotFound,
		},
		{
			name:  "single geojson",
			spec:  ConformSpec{Type: TypeGeoJSON},
			paths: []string{"notes.txt", "data.JSON"},
			want:  "data.JSON",
		},
		{
			name:    "two geojson files are ambiguous even with file",
			spec:    ConformSpec{Type: TypeGeoJSON, File: "a.json"},
			paths:   []string{"a.json", "b.json"},
			wantErr: ErrSourceAmbiguous,
		},
		{
			name:    "no geojson",
			spec:    ConformSpec{Type: TypeGeoJSON},
			paths:   []string{"a.csv"},
			wantErr: ErrSourceNotFound,
		},
		{
			name:  "csv takes the first candidate",
			spec:  ConformSpec{Type: TypeCSV},
			paths: []string{"first.txt", "second.csv"},
			want:  "first.txt",
		},
		{
			name:    "csv with no candidates",
			spec:    ConformSpec{Type: TypeCSV},
			wantErr: ErrSourceNotFound,
		},
		{
			name:    "unknown type",
			spec:    ConformSpec{Type: "broken"},
			paths:   []string{"a.shp"},
			wantErr: ErrUnsupportedSourceType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectSource(tt.spec, tt.paths)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SelectSource() error = %v, want %v", err, tt.wantErr)
				}
				if got != "" {
					t.Errorf("SelectSource() = %q on error, want empty", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectSource() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectSource() = %q, want %q", got, tt.want)
			}
		})
	}
}
