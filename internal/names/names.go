// Package names derives file system and GeoServer safe identifiers from display names.
package names

import (
	"regexp"
	"strings"
)

// TitleMaxLength is the longest navigation title WatershedTitle produces, suffix excluded.
const TitleMaxLength = 30

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Format trims s, replaces spaces by underscores, lowercases it, drops every character
// outside [a-zA-Z0-9_-] and strips leading '-' and '_'.
// Stored folder and file names depend on this output, so it must never change.
func Format(s string) string {
	formatted := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	formatted = unsafeChars.ReplaceAllString(formatted, "")

	return strings.TrimLeft(formatted, "-_")
}

// WatershedTitle builds the "Watershed (Subbasin)" label shown in the navigation,
// shortening the parts with "..." to stay within TitleMaxLength.
func WatershedTitle(watershed, subbasin string) string {
	watershed = strings.TrimSpace(watershed)
	subbasin = strings.TrimSpace(subbasin)

	if len(watershed) > TitleMaxLength {
		return strings.TrimSpace(watershed[:TitleMaxLength-1]) + "..."
	}

	remaining := TitleMaxLength - len(watershed)
	if len(subbasin) > remaining {
		return watershed + " (" + strings.TrimSpace(subbasin[:max(remaining-3, 0)]) + " ...)"
	}

	return watershed + " (" + subbasin + ")"
}
