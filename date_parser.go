package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// filenameDate is a date recovered from a filename or directory name.
type filenameDate struct {
	Year    int
	Month   int
	Day     int
	Hour    int
	Minute  int
	Second  int
	HasTime bool
}

// Cameras, phones and export tools encode the shooting date in the filename
// even when the EXIF block was stripped. Order matters: patterns that carry a
// time of day come before their date-only prefixes.
var filenameDatePatterns = []struct {
	regex   *regexp.Regexp
	extract func(m []string) filenameDate
}{
	{
		// YYYY-MM-DD HH.MM.SS (desktop export style)
		regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})\s+(\d{2})\.(\d{2})\.(\d{2})`),
		func(m []string) filenameDate {
			return filenameDate{
				Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3]),
				Hour: atoi(m[4]), Minute: atoi(m[5]), Second: atoi(m[6]),
				HasTime: true,
			}
		},
	},
	{
		// YYYYMMDD_HHMMSS (phone camera style, e.g. IMG_20190102_130405)
		regexp.MustCompile(`(\d{4})(\d{2})(\d{2})[_-](\d{2})(\d{2})(\d{2})`),
		func(m []string) filenameDate {
			return filenameDate{
				Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3]),
				Hour: atoi(m[4]), Minute: atoi(m[5]), Second: atoi(m[6]),
				HasTime: true,
			}
		},
	},
	{
		// YYYY-MM-DD or YYYY_MM_DD
		regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})`),
		func(m []string) filenameDate {
			return filenameDate{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}
		},
	},
	{
		// YYYYMMDD (8 consecutive digits not embedded in a longer run)
		regexp.MustCompile(`(?:^|\D)(\d{4})(\d{2})(\d{2})(?:\D|$)`),
		func(m []string) filenameDate {
			return filenameDate{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}
		},
	},
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (d filenameDate) valid() bool {
	if d.Year < 1800 || d.Year > 2100 {
		return false
	}
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	if d.Day < 1 || d.Day > 31 {
		return false
	}
	if d.HasTime {
		// time.Date would silently normalize an out-of-range time into a
		// different day
		if d.Hour > 23 || d.Minute > 59 || d.Second > 59 {
			return false
		}
	}
	return true
}

func (d filenameDate) toTime() time.Time {
	if d.HasTime {
		return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
	}
	// Date-only names get noon so the match window stays centered on the day
	return time.Date(d.Year, time.Month(d.Month), d.Day, 12, 0, 0, 0, time.UTC)
}

// captureTimeFromFilename recovers a capture timestamp from a photo's
// filename, falling back to its directory path. Used when the file carries no
// usable EXIF timestamp.
func captureTimeFromFilename(path string) (time.Time, error) {
	base := filepath.Base(path)
	name := base[:len(base)-len(filepath.Ext(base))]

	// Try the filename first, then the full path; parent directories often
	// carry the date when the filename does not.
	for _, search := range []string{name, path} {
		for _, pattern := range filenameDatePatterns {
			m := pattern.regex.FindStringSubmatch(search)
			if m == nil {
				continue
			}
			d := pattern.extract(m)
			if !d.valid() {
				continue
			}
			return d.toTime(), nil
		}
	}

	return time.Time{}, fmt.Errorf("no date in filename: %s", path)
}
