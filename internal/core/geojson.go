package core

// geojson.go extracts GeoJSON FeatureCollections without holding the whole
// document in memory. The file is read twice: once to learn the property
// names (a column set the CSV header must declare up front), once to write
// rows. Each feature becomes one row of properties plus X/Y, the
// representative point of its geometry.

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// GeoJSONExtractor converts GeoJSON FeatureCollections. GeoJSON coordinates
// are WGS84 longitude/latitude by definition, so no reprojection is needed.
type GeoJSONExtractor struct{}

// geoFeature keeps properties raw so their key order survives into the
// CSV header.
type geoFeature struct {
	Type       string            `json:"type"`
	Properties json.RawMessage   `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// errNoFeatures marks a document that is neither a FeatureCollection nor a
// single Feature.
var errNoFeatures = errors.New("invalid geojson: no features")

type geoCRS struct {
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

// Extract implements GeometryExtractor.
func (g *GeoJSONExtractor) Extract(sourcePath, destPath string) error {
	var columns []string
	seen := make(map[string]bool)

	err := walkGeoJSONFile(sourcePath, func(f geoFeature) error {
		props, err := orderedProperties(f.Properties)
		if err != nil {
			return err
		}
		for _, p := range props {
			if !seen[p.Name] {
				seen[p.Name] = true
				columns = append(columns, p.Name)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return writeFileAtomic(destPath, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		header := append(append([]string(nil), columns...), ColumnX, ColumnY)
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}

		pos := make(map[string]int, len(columns))
		for i, c := range columns {
			pos[c] = i
		}
		out := make([]string, len(header))

		err := walkGeoJSONFile(sourcePath, func(f geoFeature) error {
			for i := range out {
				out[i] = ""
			}
			props, err := orderedProperties(f.Properties)
			if err != nil {
				return err
			}
			for _, p := range props {
				out[pos[p.Name]] = p.Value
			}
			if f.Geometry != nil {
				if p, ok := representativePoint(f.Geometry.Geometry()); ok {
					out[len(out)-2] = formatCoord(p.X())
					out[len(out)-1] = formatCoord(p.Y())
				}
			}
			return writer.Write(out)
		})
		if err != nil {
			return err
		}
		writer.Flush()
		return writer.Error()
	})
}

func walkGeoJSONFile(path string, fn func(geoFeature) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open geojson: %w", err)
	}
	defer f.Close()

	src, err := NewDecodingReader(f, "")
	if err != nil {
		return err
	}
	return walkGeoJSON(src, fn)
}

// walkGeoJSON calls fn for every feature of a FeatureCollection read from r,
// decoding one feature at a time. A top-level Feature is walked as a
// collection of one.
func walkGeoJSON(r io.Reader, fn func(geoFeature) error) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	var (
		docType     string
		hasFeatures bool
		single      geoFeature
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("invalid geojson: %w", err)
		}
		key, _ := tok.(string)

		switch key {
		case "features":
			hasFeatures = true
			if err := expectDelim(dec, '['); err != nil {
				return err
			}
			for dec.More() {
				var feat geoFeature
				if err := dec.Decode(&feat); err != nil {
					return fmt.Errorf("invalid geojson feature: %w", err)
				}
				if err := fn(feat); err != nil {
					return err
				}
			}
			if err := expectDelim(dec, ']'); err != nil {
				return err
			}
		case "type":
			if err := dec.Decode(&docType); err != nil {
				return fmt.Errorf("invalid geojson type: %w", err)
			}
		case "properties":
			if err := dec.Decode(&single.Properties); err != nil {
				return fmt.Errorf("invalid geojson properties: %w", err)
			}
		case "geometry":
			if err := dec.Decode(&single.Geometry); err != nil {
				return fmt.Errorf("invalid geojson geometry: %w", err)
			}
		case "crs":
			var crs geoCRS
			if err := dec.Decode(&crs); err != nil {
				return fmt.Errorf("invalid geojson crs: %w", err)
			}
			if !isWGS84(crs.Properties.Name) {
				return fmt.Errorf("%w: geojson crs %q is not WGS84", ErrUnsupportedConfiguration, crs.Properties.Name)
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("invalid geojson: %w", err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}

	switch {
	case hasFeatures:
		return nil
	case docType == "Feature":
		single.Type = docType
		return fn(single)
	default:
		return errNoFeatures
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("invalid geojson: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("invalid geojson: expected %q, got %v", want, tok)
	}
	return nil
}

func isWGS84(name string) bool {
	switch strings.ToUpper(name) {
	case "", "EPSG:4326", "URN:OGC:DEF:CRS:OGC:1.3:CRS84", "URN:OGC:DEF:CRS:EPSG::4326", "CRS84":
		return true
	default:
		return false
	}
}

// orderedProperties decodes a properties object keeping key order.
// Values become strings: JSON strings unquoted, numbers verbatim, booleans
// as true/false, null as "", nested values as compact JSON.
func orderedProperties(raw json.RawMessage) ([]Field, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid geojson properties: %w", err)
		}
		name, _ := tok.(string)

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("invalid geojson property %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Value: propertyString(v)})
	}
	return fields, nil
}

func propertyString(v json.RawMessage) string {
	s := strings.TrimSpace(string(v))
	switch {
	case s == "null":
		return ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			return str
		}
		return s
	default:
		return s
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// representativePoint returns the point written as X/Y for a geometry:
// the point itself, the mean of a multipoint, the length-weighted centroid
// of lines, or the area centroid of polygons. Collections use only their
// highest-dimension members.
func representativePoint(g orb.Geometry) (orb.Point, bool) {
	if g == nil || isEmptyGeometry(g) {
		return orb.Point{}, false
	}
	if c, ok := g.(orb.Collection); ok {
		g = highestDimension(c)
		if isEmptyGeometry(g) {
			return orb.Point{}, false
		}
	}
	p, _ := planar.CentroidArea(g)
	if math.IsNaN(p.X()) || math.IsNaN(p.Y()) {
		return orb.Point{}, false
	}
	return p, true
}

// highestDimension flattens a collection into a multi geometry holding the
// members of its highest dimension, so lines beat points and areas beat lines.
func highestDimension(c orb.Collection) orb.Geometry {
	var (
		points   orb.MultiPoint
		lines    orb.MultiLineString
		polygons orb.MultiPolygon
	)
	var flatten func(orb.Collection)
	flatten = func(c orb.Collection) {
		for _, g := range c {
			switch g := g.(type) {
			case orb.Point:
				points = append(points, g)
			case orb.MultiPoint:
				points = append(points, g...)
			case orb.LineString:
				lines = append(lines, g)
			case orb.MultiLineString:
				lines = append(lines, g...)
			case orb.Polygon:
				polygons = append(polygons, g)
			case orb.MultiPolygon:
				polygons = append(polygons, g...)
			case orb.Collection:
				flatten(g)
			}
		}
	}
	flatten(c)

	switch {
	case len(polygons) > 0:
		return polygons
	case len(lines) > 0:
		return lines
	default:
		return points
	}
}

func isEmptyGeometry(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.MultiLineString:
		return len(g) == 0
	case orb.Polygon:
		return len(g) == 0
	case orb.MultiPolygon:
		return len(g) == 0
	case orb.Collection:
		return len(g) == 0
	default:
		return false
	}
}
