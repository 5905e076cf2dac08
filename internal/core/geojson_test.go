package core

import (
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
)

func TestGeoJSONExtractor_Extract(t *testing.T) {
	doc := `{
	"type": "FeatureCollection",
	"name": "addresses",
	"features": [
		{"type": "Feature",
		 "properties": {"NUMBER": 12, "STREET": "MAIN ST", "ok": true},
		 "geometry": {"type": "Point", "coordinates": [-122.25, 37.8]}},
		{"type": "Feature",
		 "properties": {"STREET": "ELM AVE", "UNIT": null, "tags": ["a", "b"]},
		 "geometry": null},
		{"type": "Feature",
		 "properties": {"NUMBER": "7", "STREET": "OAK DR"},
		 "geometry": {"type": "Polygon", "coordinates": [[[0,0],[2,0],[2,2],[0,2],[0,0]]]}}
	]
}`
	dir := t.TempDir()
	src := writeTestFile(t, dir, "a.json", doc)
	dest := filepath.Join(dir, "extract.csv")

	if err := (&GeoJSONExtractor{}).Extract(src, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := [][]string{
		{"NUMBER", "STREET", "ok", "UNIT", "tags", "X", "Y"},
		{"12", "MAIN ST", "true", "", "", "-122.25", "37.8"},
		{"", "ELM AVE", "", "", `["a", "b"]`, "", ""},
		{"7", "OAK DR", "", "", "", "1", "1"},
	}
	if got := readCSV(t, dest); !reflect.DeepEqual(got, want) {
		t.Errorf("got\n%v\nwant\n%v", got, want)
	}
}

func TestGeoJSONExtractor_RejectsProjectedCRS(t *testing.T) {
	doc := `{"type":"FeatureCollection",
		"crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::2227"}},
		"features":[]}`
	dir := t.TempDir()
	src := writeTestFile(t, dir, "a.json", doc)

	err := (&GeoJSONExtractor{}).Extract(src, filepath.Join(dir, "out.csv"))
	if !errors.Is(err, ErrUnsupportedConfiguration) {
		t.Errorf("error = %v, want ErrUnsupportedConfiguration", err)
	}
}

func TestGeoJSONExtractor_AcceptsCRS84(t *testing.T) {
	doc := `{"type":"FeatureCollection",
		"crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:OGC:1.3:CRS84"}},
		"features":[{"type":"Feature","properties":{"a":"b"},"geometry":{"type":"Point","coordinates":[1,2]}}]}`
	dir := t.TempDir()
	src := writeTestFile(t, dir, "a.json", doc)
	dest := filepath.Join(dir, "out.csv")

	if err := (&GeoJSONExtractor{}).Extract(src, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := [][]string{{"a", "X", "Y"}, {"b", "1", "2"}}
	if got := readCSV(t, dest); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGeoJSONExtractor_SingleFeature(t *testing.T) {
	doc := `{"type":"Feature","properties":{"N":"1","S":"MAIN ST"},"geometry":{"type":"Point","coordinates":[1,2]}}`
	dir := t.TempDir()
	src := writeTestFile(t, dir, "a.json", doc)
	dest := filepath.Join(dir, "out.csv")

	if err := (&GeoJSONExtractor{}).Extract(src, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := [][]string{{"N", "S", "X", "Y"}, {"1", "MAIN ST", "1", "2"}}
	if got := readCSV(t, dest); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGeoJSONExtractor_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		noFeatures bool
	}{
		{name: "top-level array", doc: `[1, 2, 3]`},
		{name: "truncated", doc: `{"type":"FeatureCollection","features":[`},
		{name: "bare geometry", doc: `{"type":"Point","coordinates":[1,2]}`, noFeatures: true},
		{name: "collection without features", doc: `{"type":"FeatureCollection","name":"x"}`, noFeatures: true},
		{name: "empty object", doc: `{}`, noFeatures: true},
		{
			name: "unknown geometry type",
			doc:  `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Circle","coordinates":[0,0]}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeTestFile(t, dir, "a.json", tt.doc)

			err := (&GeoJSONExtractor{}).Extract(src, filepath.Join(dir, "out.csv"))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "invalid geojson") {
				t.Errorf("error = %v, want an invalid geojson error", err)
			}
			if tt.noFeatures && !errors.Is(err, errNoFeatures) {
				t.Errorf("error = %v, want errNoFeatures", err)
			}
			if got := MapError(err).Code; got != "FILE002" {
				t.Errorf("code = %s, want FILE002", got)
			}
		})
	}
}

func TestRepresentativePoint(t *testing.T) {
	tests := []struct {
		name   string
		geom   string
		wantX  float64
		wantY  float64
		wantOK bool
	}{
		{"point", `{"type":"Point","coordinates":[3,4]}`, 3, 4, true},
		{"multipoint mean", `{"type":"MultiPoint","coordinates":[[0,0],[2,4]]}`, 1, 2, true},
		{"line length weighted", `{"type":"LineString","coordinates":[[0,0],[4,0],[4,2]]}`, 8.0 / 3, 1.0 / 3, true},
		{"square", `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`, 2, 2, true},
		{
			"square with hole",
			`{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]],[[0,0],[2,0],[2,2],[0,2],[0,0]]]}`,
			7.0 / 3, 7.0 / 3, true,
		},
		{
			"multipolygon area weighted",
			`{"type":"MultiPolygon","coordinates":[[[[0,0],[2,0],[2,2],[0,2],[0,0]]],[[[10,0],[11,0],[11,1],[10,1],[10,0]]]]}`,
			(1*4 + 10.5*1) / 5.0, (1*4 + 0.5*1) / 5.0, true,
		},
		{"degenerate polygon falls back to lines", `{"type":"Polygon","coordinates":[[[0,0],[2,0],[0,0]]]}`, 1, 0, true},
		{
			"collection prefers areas",
			`{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[100,100]},{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}]}`,
			1, 1, true,
		},
		{
			"collection of lines",
			`{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[100,100]},{"type":"LineString","coordinates":[[0,0],[4,0]]},{"type":"LineString","coordinates":[[0,2],[4,2]]}]}`,
			2, 1, true,
		},
		{
			"collection of points",
			`{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[2,2]},{"type":"MultiPoint","coordinates":[[4,4],[6,6]]}]}`,
			4, 4, true,
		},
		{"empty multipoint", `{"type":"MultiPoint","coordinates":[]}`, 0, 0, false},
		{"empty collection", `{"type":"GeometryCollection","geometries":[]}`, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := geojson.UnmarshalGeometry([]byte(tt.geom))
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			p, ok := representativePoint(g.Geometry())
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(p.X()-tt.wantX) > 1e-9 || math.Abs(p.Y()-tt.wantY) > 1e-9 {
				t.Errorf("point = (%v, %v), want (%v, %v)", p.X(), p.Y(), tt.wantX, tt.wantY)
			}
		})
	}
}

func TestRepresentativePoint_Nil(t *testing.T) {
	if _, ok := representativePoint(nil); ok {
		t.Error("nil geometry should have no point")
	}
}

func TestPropertyString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"text"`, "text"},
		{`"esc\"aped"`, `esc"aped`},
		{`12.50`, "12.50"},
		{`false`, "false"},
		{`null`, ""},
		{`{"a":1}`, `{"a":1}`},
	}
	for _, tt := range tests {
		if got := propertyString([]byte(tt.raw)); got != tt.want {
			t.Errorf("propertyString(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFormatCoord(t *testing.T) {
	if got := formatCoord(-122.25); got != "-122.25" {
		t.Errorf("formatCoord() = %q", got)
	}
	if got, _ := strconv.ParseFloat(formatCoord(1.0/3), 64); got != 1.0/3 {
		t.Errorf("formatCoord() loses precision: %v", got)
	}
}
