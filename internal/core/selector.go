package core

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// SelectSource picks the authoritative data file among candidate paths.
//
//   - shapefile, shapefile-polygon: the only .shp file, or the one whose
//     base name matches spec.File (case-insensitive) when there are several
//   - geojson: the only .json file; several are always ambiguous
//   - csv: the first candidate
//
// Failures are ErrSourceNotFound, ErrSourceAmbiguous or
// ErrUnsupportedSourceType.
func SelectSource(spec ConformSpec, paths []string) (string, error) {
	switch spec.Type {
	case TypeShapefile, TypeShapefilePolygon:
		candidates := filterByExt(paths, ".shp")
		switch len(candidates) {
		case 0:
			slog.Warn("no shapefiles found", "paths", paths)
			return "", fmt.Errorf("%w: no shapefile among %d files", ErrSourceNotFound, len(paths))
		case 1:
			slog.Debug("selected source", "path", candidates[0])
			return candidates[0], nil
		}

		if spec.File == "" {
			slog.Warn("multiple shapefiles found, but source has no file attribute", "count", len(candidates))
			return "", fmt.Errorf("%w: %d shapefiles and no file attribute", ErrSourceAmbiguous, len(candidates))
		}
		for _, c := range candidates {
			if strings.EqualFold(filepath.Base(c), spec.File) {
				slog.Debug("selected source", "path", c, "file", spec.File)
				return c, nil
			}
		}
		slog.Warn("source names file but could not find it", "file", spec.File)
		return "", fmt.Errorf("%w: file %q not among candidates", ErrSourceNotFound, spec.File)

	case TypeGeoJSON:
		candidates := filterByExt(paths, ".json")
		switch len(candidates) {
		case 0:
			slog.Warn("no JSON found", "paths", paths)
			return "", fmt.Errorf("%w: no json among %d files", ErrSourceNotFound, len(paths))
		case 1:
			slog.Debug("selected source", "path", candidates[0])
			return candidates[0], nil
		default:
			slog.Warn("found more than one JSON file in source, can't pick one", "count", len(candidates))
			return "", fmt.Errorf("%w: %d json files", ErrSourceAmbiguous, len(candidates))
		}

	case TypeCSV:
		if len(paths) == 0 {
			return "", fmt.Errorf("%w: no files", ErrSourceNotFound)
		}
		return paths[0], nil

	default:
		slog.Warn("unknown source type", "type", spec.Type)
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSourceType, spec.Type)
	}
}

// filterByExt keeps paths whose extension matches ext, ignoring case.
func filterByExt(paths []string, ext string) []string {
	var out []string
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ext) {
			out = append(out, p)
		}
	}
	return out
}
