package forecast

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ci-water/adhydro-streamflow/internal/cleanup"
)

const (
	// MostRecent selects the newest forecast file.
	MostRecent = "most_recent"
	// MaxDates bounds the available dates listing.
	MaxDates = 64
	// DateLayout is the layout of the date token in forecast file names.
	DateLayout = "20060102T1504Z"
)

// FileName returns the forecast file name of a date token, e.g. "RapidResult_20150405T2300Z_CF.nc".
func FileName(dateString string) string {
	return "RapidResult_" + dateString + "_CF.nc"
}

// exists reports whether path exists.
func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// FindMostCurrentFile resolves the forecast file of dir for dateString.
// MostRecent picks the lexicographically greatest "*.nc" file; any other value must name an existing
// RapidResult file. An empty result means no forecast was found.
func FindMostCurrentFile(dir, dateString string) string {
	if dateString == MostRecent {
		if !exists(dir) {
			return ""
		}

		matches, err := filepath.Glob(filepath.Join(dir, "*.nc"))
		if err != nil {
			return ""
		}

		sort.Sort(sort.Reverse(sort.StringSlice(matches)))

		for _, m := range matches {
			if exists(m) {
				return m
			}
		}

		return ""
	}

	name := FileName(dateString)
	if filepath.Base(name) != name {
		return ""
	}

	path := filepath.Join(dir, name)
	if exists(path) {
		return path
	}

	return ""
}

// ReachIndex returns the index of a reach inside a forecast file.
// The lookup by channel id is not implemented: the id itself is used as the index.
// A reach id that is not a non-negative integer is not found.
func ReachIndex(reachID string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(reachID))
	if err != nil || index < 0 {
		return 0, &ReachNotFoundError{ReachID: reachID}
	}

	return index, nil
}

// Date is one selectable forecast run.
type Date struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// DateText formats a date token for display, returning the token itself if it does not parse.
func DateText(token string) string {
	t, err := time.Parse(DateLayout, token)
	if err != nil {
		return token
	}

	return t.Format("2006-01-02 15:04 UTC")
}

// AvailableDates lists the forecast runs in dir, newest first, at most MaxDates.
// The date token is the second underscore separated part of a file name; files without one are skipped.
func AvailableDates(dir string) ([]Date, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	dates := make([]Date, 0, min(len(names), MaxDates))

	for _, name := range names {
		parts := strings.Split(name, "_")
		if len(parts) < 2 { //nolint:mnd
			continue
		}

		if !exists(filepath.Join(dir, name)) {
			continue
		}

		dates = append(dates, Date{ID: parts[1], Text: DateText(parts[1])})
		if len(dates) == MaxDates {
			break
		}
	}

	return dates, nil
}

// RemoveCachedFiles removes root/watershed/subbasin and then root/watershed if it became empty.
func RemoveCachedFiles(root, watershed, subbasin string) cleanup.Report {
	var report cleanup.Report

	if root == "" || watershed == "" || subbasin == "" {
		return report
	}

	watershedDir := filepath.Join(root, watershed)
	subbasinDir := filepath.Join(watershedDir, subbasin)

	if !exists(subbasinDir) {
		report.Add(subbasinDir, fs.ErrNotExist)

		return report
	}

	report.Add(subbasinDir, os.RemoveAll(subbasinDir))

	rest, err := os.ReadDir(watershedDir)
	if err != nil {
		report.Add(watershedDir, err)

		return report
	}

	if len(rest) == 0 {
		report.Add(watershedDir, os.Remove(watershedDir))
	}

	return report
}
