package core

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestCSVSourceToCSV(t *testing.T) {
	tests := []struct {
		name   string
		spec   ConformSpec
		source string
		want   [][]string
	}{
		{
			name:   "moves coordinates to the end",
			spec:   ConformSpec{Type: TypeCSV, Lat: "lat", Lon: "lon"},
			source: "LAT,number,LON,street\n37.8,5115,-122.2,FRUITED PLAINS LN\n",
			want: [][]string{
				{"number", "street", "X", "Y"},
				{"5115", "FRUITED PLAINS LN", "-122.2", "37.8"},
			},
		},
		{
			name:   "utf-8 header names",
			spec:   ConformSpec{Type: TypeCSV, Lat: "緯度", Lon: "経度"},
			source: "住所,緯度,経度\n東京,35.6,139.7\n",
			want: [][]string{
				{"住所", "X", "Y"},
				{"東京", "139.7", "35.6"},
			},
		},
		{
			name:   "semicolon csvsplit",
			spec:   ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x", CSVSplit: ";"},
			source: "x;y;addr\n1;2;3 Main St, Apt 4\n",
			want: [][]string{
				{"addr", "X", "Y"},
				{"3 Main St, Apt 4", "1", "2"},
			},
		},
		{
			name:   "skiplines and short rows",
			spec:   ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x", SkipLines: 1},
			source: "exported 2014-01-01\naddr,x,y\n1 Main\n",
			want: [][]string{
				{"addr", "X", "Y"},
				{"1 Main", "", ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeTestFile(t, dir, "source.csv", tt.source)
			dest := filepath.Join(dir, "extract.csv")

			if err := CSVSourceToCSV(tt.spec, src, dest); err != nil {
				t.Fatalf("CSVSourceToCSV() error = %v", err)
			}
			if got := readCSV(t, dest); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCSVSourceToCSV_Encoding(t *testing.T) {
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), "住所,緯度,経度\n大阪,34.7,135.5\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dir := t.TempDir()
	src := writeTestFile(t, dir, "source.csv", encoded)
	dest := filepath.Join(dir, "extract.csv")

	spec := ConformSpec{Type: TypeCSV, Lat: "緯度", Lon: "経度", Encoding: "shift_jis"}
	if err := CSVSourceToCSV(spec, src, dest); err != nil {
		t.Fatalf("CSVSourceToCSV() error = %v", err)
	}
	want := [][]string{{"住所", "X", "Y"}, {"大阪", "135.5", "34.7"}}
	if got := readCSV(t, dest); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCSVSourceToCSV_MissingCoordinate(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "source.csv", "lat,addr\n1,2\n")
	dest := filepath.Join(dir, "extract.csv")

	err := CSVSourceToCSV(ConformSpec{Type: TypeCSV, Lat: "lat", Lon: "lon"}, src, dest)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) || mfe.Field != "lon" {
		t.Fatalf("error = %v, want missing lon", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("extract written despite failure")
	}
}

func TestCSVSourceToCSV_Empty(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "source.csv", "")
	err := CSVSourceToCSV(ConformSpec{Type: TypeCSV, Lat: "y", Lon: "x"}, src, filepath.Join(dir, "x.csv"))
	if err == nil || !strings.Contains(err.Error(), "empty file") {
		t.Errorf("error = %v, want empty file", err)
	}
}

type stubExtractor struct {
	called string
}

func (s *stubExtractor) Extract(sourcePath, destPath string) error {
	s.called = sourcePath
	return os.WriteFile(destPath, []byte("X,Y\n"), 0o644)
}

func TestExtractor_Routes(t *testing.T) {
	geo, shp := &stubExtractor{}, &stubExtractor{}
	e := &Extractor{GeoJSON: geo, Shapefile: shp}
	dir := t.TempDir()

	if err := e.ExtractToSourceCSV(ConformSpec{Type: TypeShapefilePolygon}, "a.shp", filepath.Join(dir, "1.csv")); err != nil {
		t.Fatalf("shapefile: %v", err)
	}
	if err := e.ExtractToSourceCSV(ConformSpec{Type: TypeGeoJSON}, "a.json", filepath.Join(dir, "2.csv")); err != nil {
		t.Fatalf("geojson: %v", err)
	}
	if shp.called != "a.shp" || geo.called != "a.json" {
		t.Errorf("routed shp=%q geo=%q", shp.called, geo.called)
	}

	err := e.ExtractToSourceCSV(ConformSpec{Type: "xyzzy"}, "a", filepath.Join(dir, "3.csv"))
	if !errors.Is(err, ErrUnsupportedSourceType) {
		t.Errorf("unknown type error = %v", err)
	}
}

func TestExtractor_MissingExtractorIsNotSoft(t *testing.T) {
	e := &Extractor{}
	dir := t.TempDir()

	for _, typ := range []SourceType{TypeShapefile, TypeGeoJSON} {
		err := e.ExtractToSourceCSV(ConformSpec{Type: typ}, "a", filepath.Join(dir, "out.csv"))
		if !errors.Is(err, ErrUnsupportedConfiguration) {
			t.Errorf("%s: error = %v, want ErrUnsupportedConfiguration", typ, err)
		}
		if IsSoftFailure(err) {
			t.Errorf("%s: missing extractor reported as a soft failure", typ)
		}
	}
}
