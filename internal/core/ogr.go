package core

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// OGRExtractor converts shapefiles by reprojecting them to EPSG:4326
// GeoJSON with ogr2ogr, then extracting that GeoJSON natively.
type OGRExtractor struct {
	// Path is the ogr2ogr binary. Empty means look it up on PATH.
	Path    string
	GeoJSON *GeoJSONExtractor
}

// Extract implements GeometryExtractor.
func (o *OGRExtractor) Extract(sourcePath, destPath string) error {
	bin, err := o.binary()
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "addrconform-ogr-*")
	if err != nil {
		return fmt.Errorf("create ogr workdir: %w", err)
	}
	defer os.RemoveAll(dir)

	geoPath := filepath.Join(dir, "layer.json")
	cmd := exec.Command(bin, "-f", "GeoJSON", "-t_srs", "EPSG:4326", geoPath, sourcePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ogr2ogr %s: %w: %s", filepath.Base(sourcePath), err, strings.TrimSpace(string(out)))
	}
	slog.Debug("reprojected layer", "path", sourcePath, "geojson", geoPath)

	geo := o.GeoJSON
	if geo == nil {
		geo = &GeoJSONExtractor{}
	}
	return geo.Extract(geoPath, destPath)
}

func (o *OGRExtractor) binary() (string, error) {
	name := o.Path
	if name == "" {
		name = "ogr2ogr"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: ogr2ogr not available: %v", ErrUnsupportedConfiguration, err)
	}
	return bin, nil
}
