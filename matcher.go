package main

import (
	"fmt"
	"log"
	"time"

	"github.com/fatih/color"
)

var (
	colorGreen = color.New(color.FgGreen).SprintFunc()
	colorRed   = color.New(color.FgRed).SprintFunc()
)

// locationWriter is what the matcher needs from the photo library.
type locationWriter interface {
	WriteLocation(PhotoRecord, TrackPoint) error
}

// MatchStats tracks counters for one matching run.
type MatchStats struct {
	Checked int // candidate photos examined
	Matched int // photos with a track point inside the tolerance window
	Updated int // photos whose GPS tags were written
	Skipped int // photos with no track point close enough in time
	Errors  int // photos whose write failed
}

// Matcher pairs candidate photos with the nearest-in-time track point and
// writes accepted positions through the library. Runs sequentially; each
// photo is independent and a failed write never aborts the run.
type Matcher struct {
	track     *TrackIndex
	writer    locationWriter
	album     *Album
	tolerance time.Duration
	dryRun    bool
	verbose   bool
	stats     MatchStats
}

// NewMatcher creates a matcher. album may be nil.
func NewMatcher(track *TrackIndex, writer locationWriter, album *Album, tolerance time.Duration, dryRun, verbose bool) *Matcher {
	return &Matcher{
		track:     track,
		writer:    writer,
		album:     album,
		tolerance: tolerance,
		dryRun:    dryRun,
		verbose:   verbose,
	}
}

// Run matches every candidate photo and returns the final counters.
func (m *Matcher) Run(photos []PhotoRecord) MatchStats {
	for _, photo := range photos {
		m.matchPhoto(photo)
	}
	return m.stats
}

func (m *Matcher) matchPhoto(photo PhotoRecord) {
	m.stats.Checked++

	point, gap := m.track.Nearest(photo.CaptureTime)
	if gap > m.tolerance {
		if m.verbose {
			log.Printf("No track point within %s of %s (nearest gap %s)",
				m.tolerance, photo.Path, gap.Round(time.Second))
		}
		m.stats.Skipped++
		return
	}
	m.stats.Matched++

	fmt.Printf("%s %s taken %s matched within %ds: %.6f, %.6f\n",
		colorGreen("Match:"), photo.Path, photo.CaptureTime.Format(time.RFC3339),
		int(gap.Seconds()), point.Latitude, point.Longitude)

	if m.dryRun {
		return
	}

	if err := m.writer.WriteLocation(photo, point); err != nil {
		log.Printf("%s could not write location to %s: %v", colorRed("Error:"), photo.Path, err)
		m.stats.Errors++
		return
	}
	m.stats.Updated++

	if m.album != nil {
		if err := m.album.Add(photo.Path); err != nil {
			log.Printf("Warning: could not add %s to album %s: %v", photo.Path, m.album.Name, err)
		}
	}
}

// Print writes the final counters in the processing summary format.
func (s MatchStats) Print(dryRun bool) {
	fmt.Println("\n=== Matching Summary ===")
	fmt.Printf("Photos checked:   %d\n", s.Checked)
	fmt.Printf("Matched:          %d\n", s.Matched)
	if dryRun {
		fmt.Printf("Would update:     %d\n", s.Matched)
	} else {
		fmt.Printf("Updated:          %d\n", s.Updated)
	}
	fmt.Printf("No nearby point:  %d\n", s.Skipped)
	fmt.Printf("Errors:           %d\n", s.Errors)
	fmt.Println("========================")
}
