package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagLibrary  string
	flagDelta    int
	flagDryRun   bool
	flagAlbum    string
	flagSelected bool
	flagWorkers  int
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "gpx-geotag GPX_FILE",
	Short: "Backfill missing photo GPS coordinates from a GPX track log",
	Long: `Backfill missing GPS coordinates on photos by cross-referencing capture
timestamps against a GPX track log. Each photo that lacks location data is
paired with the nearest-in-time track point; when the time gap is within the
tolerance window the point's coordinates are written into the photo's GPS
tags. Photos that already carry a location are never touched.

The library root may be a local directory or a remote one over SSH
(user@host:/path).`,
	Args:          cobra.ExactArgs(1),
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagLibrary, "library", ".", "Photo library root, a local directory or user@host:/path over SSH")
	rootCmd.Flags().IntVar(&flagDelta, "delta", 60, "Time delta in seconds; a photo matches a track point when their timestamps differ by at most this much")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Report matches without writing location data")
	rootCmd.Flags().StringVar(&flagAlbum, "add-to-album", "", "Copy updated photos into the named album directory under the library root, creating it if necessary")
	rootCmd.Flags().BoolVar(&flagSelected, "selected", false, "Only consider photo paths read from stdin, one per line")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 2, "Number of concurrent metadata extraction workers")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	config := &Config{
		GPXFile:  args[0],
		Library:  flagLibrary,
		Delta:    flagDelta,
		DryRun:   flagDryRun,
		Album:    flagAlbum,
		Selected: flagSelected,
		Workers:  flagWorkers,
		Verbose:  flagVerbose,
	}

	log.Printf("Loading GPX data from %s", config.GPXFile)
	track, err := LoadTrackIndex(config.GPXFile)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d %s from GPX file",
		track.Len(), pluralize(track.Len(), "track point", "track points"))

	earliest, latest := track.Earliest(), track.Latest()
	log.Printf("Earliest: %s, %.6f, %.6f", earliest.Time, earliest.Latitude, earliest.Longitude)
	log.Printf("Latest: %s, %.6f, %.6f", latest.Time, latest.Latitude, latest.Longitude)

	lib, err := OpenPhotoLibrary(config.Library, config.Workers, config.Verbose)
	if err != nil {
		return err
	}
	defer lib.Close()

	var album *Album
	if config.Album != "" {
		if lib.Remote() {
			return fmt.Errorf("--add-to-album is not supported for remote libraries")
		}
		album, err = NewAlbum(config.Library, config.Album)
		if err != nil {
			return err
		}
	}

	var selected []string
	if config.Selected {
		selected, err = readSelection(os.Stdin)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			return fmt.Errorf("no photos selected")
		}
		log.Printf("Restricting to %d selected %s",
			len(selected), pluralize(len(selected), "photo", "photos"))
	}

	photos, err := lib.Candidates(selected)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		log.Printf("No photos lack location information, nothing to do")
		return nil
	}
	log.Printf("Checking %d %s that lack location information",
		len(photos), pluralize(len(photos), "photo", "photos"))

	matcher := NewMatcher(track, lib, album, config.Tolerance(), config.DryRun, config.Verbose)
	stats := matcher.Run(photos)
	stats.Print(config.DryRun)

	if album != nil && album.Added() > 0 {
		log.Printf("Added %d %s to album %q",
			album.Added(), pluralize(album.Added(), "photo", "photos"), album.Name)
	}

	return nil
}

// readSelection reads newline-separated photo paths, skipping blanks and
// comment lines.
func readSelection(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}
	return paths, nil
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
