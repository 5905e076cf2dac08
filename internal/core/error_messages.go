// # Error Codes Reference
//
// This file maps conform errors to user-facing messages with codes for
// support reference. Operators quote the code; support looks it up here.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Unsupported source type: the conform type is missing or unknown
//	         Action: Use shapefile, shapefile-polygon, geojson or csv
//	         Patterns: "unsupported source type"
//
//	SRC002 - No conform: the source definition has no conform section
//	         Action: Add a conform section to the source definition
//	         Patterns: "source has no conform section"
//
//	SRC003 - Source not found: no candidate file matches the source type
//	         Action: Check the archive contents and the conform file attribute
//	         Patterns: "source file not found"
//
//	SRC004 - Ambiguous source: several candidate files match
//	         Action: Set the conform file attribute to pick one
//	         Patterns: "source selection ambiguous"
//
//	SRC005 - Decompression failed: the archive could not be extracted
//	         Action: Check that the download is a valid zip file
//	         Patterns: "decompression failed"
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - External tool missing: ogr2ogr is not installed
//	         Action: Install GDAL or set CONFORM_OGR2OGR_PATH
//	         Patterns: "ogr2ogr not available"
//
//	CFG002 - Unsupported configuration: the conform uses an option we cannot run
//	         Action: Remove headers or advanced_merge, check csvsplit and encoding
//	         Patterns: "unsupported conform configuration"
//
//	CFG003 - Invalid definition: the source definition is not valid JSON
//	         Action: Validate the source JSON
//	         Patterns: "parse source definition"
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - Missing output field: a row has no number or street
//	         Action: Check the number and street attributes of the conform
//	         Patterns: "missing required output field"
//
//	ROW002 - Missing field: merge, split or extract named an absent column
//	         Action: Check field names in merge, split, lat and lon
//	         Patterns: "missing field"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds the configured limit
//	          Action: Upload a zip archive or raise CONFORM_MAX_UPLOAD_SIZE
//	          Patterns: "file too large"
//
//	FILE002 - Invalid data: the source is not valid CSV or GeoJSON
//	          Action: Check the file type and csvsplit of the conform
//	          Patterns: "invalid csv", "invalid geojson"
//
//	FILE003 - Empty file: the source has no header row
//	          Action: Check that the download completed
//	          Patterns: "empty file"
//
//	FILE004 - No file: the request carried no data file
//	          Action: Attach the source data as the file field
//	          Patterns: "no file provided"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: too many conform runs in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many conform runs"
//
//	RUN002 - Run not found: no run has this ID
//	         Action: Check the run ID
//	         Patterns: "run not found"
//
//	RUN003 - Cancelled: the request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	RUN004 - Timeout: the run took longer than CONFORM_TIMEOUT
//	         Action: Split the source or raise CONFORM_TIMEOUT
//	         Patterns: "context deadline exceeded"
//
//	RUN005 - No output: the run did not produce a canonical CSV
//	         Action: Check the run status and error
//	         Patterns: "run has no output"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: first match wins.
var errorPatterns = []errorPattern{
	// Source errors
	{
		pattern: "unsupported source type",
		msg: UserMessage{
			Message: "Unsupported source type",
			Action:  "Use shapefile, shapefile-polygon, geojson or csv",
			Code:    "SRC001",
		},
	},
	{
		pattern: "source has no conform section",
		msg: UserMessage{
			Message: "Source has no conform section",
			Action:  "Add a conform section to the source definition",
			Code:    "SRC002",
		},
	},
	{
		pattern: "source file not found",
		msg: UserMessage{
			Message: "No matching data file in the source",
			Action:  "Check the archive contents and the conform file attribute",
			Code:    "SRC003",
		},
	},
	{
		pattern: "source selection ambiguous",
		msg: UserMessage{
			Message: "Several data files match the source",
			Action:  "Set the conform file attribute to pick one",
			Code:    "SRC004",
		},
	},
	{
		pattern: "decompression failed",
		msg: UserMessage{
			Message: "The archive could not be extracted",
			Action:  "Check that the download is a valid zip file",
			Code:    "SRC005",
		},
	},

	// Configuration errors
	{
		pattern: "ogr2ogr not available",
		msg: UserMessage{
			Message: "ogr2ogr is not installed",
			Action:  "Install GDAL or set CONFORM_OGR2OGR_PATH",
			Code:    "CFG001",
		},
	},
	{
		pattern: "unsupported conform configuration",
		msg: UserMessage{
			Message: "The conform uses an unsupported option",
			Action:  "Remove headers or advanced_merge, check csvsplit and encoding",
			Code:    "CFG002",
		},
	},
	{
		pattern: "parse source definition",
		msg: UserMessage{
			Message: "The source definition is not valid JSON",
			Action:  "Validate the source JSON",
			Code:    "CFG003",
		},
	},

	// Row errors
	{
		pattern: "missing required output field",
		msg: UserMessage{
			Message: "A row has no street number or street name",
			Action:  "Check the number and street attributes of the conform",
			Code:    "ROW001",
		},
	},
	{
		pattern: "missing field",
		msg: UserMessage{
			Message: "A conform field is missing from the data",
			Action:  "Check field names in merge, split, lat and lon",
			Code:    "ROW002",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Upload a zip archive or raise CONFORM_MAX_UPLOAD_SIZE",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not valid CSV",
			Action:  "Check the file type and csvsplit of the conform",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid geojson",
		msg: UserMessage{
			Message: "File is not a valid GeoJSON FeatureCollection",
			Action:  "Check the file type of the conform",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The source file is empty",
			Action:  "Check that the download completed",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No data file was attached",
			Action:  "Attach the source data as the file field",
			Code:    "FILE004",
		},
	},

	// Run errors
	{
		pattern: "too many conform runs",
		msg: UserMessage{
			Message: "System is busy processing other sources",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "Run not found",
			Action:  "Check the run ID",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Conform timed out",
			Action:  "Split the source or raise CONFORM_TIMEOUT",
			Code:    "RUN004",
		},
	},
	{
		pattern: "run has no output",
		msg: UserMessage{
			Message: "This run has no output file",
			Action:  "Check the run status and error",
			Code:    "RUN005",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The
// first case-insensitive pattern match wins; no match yields ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
