package main

import "time"

// Config holds the run configuration assembled from CLI flags
type Config struct {
	GPXFile  string // GPX track log path
	Library  string // Library root, a local directory or user@host:/path over SSH
	Delta    int    // Tolerance window in seconds
	DryRun   bool
	Album    string // Album name for matched photos, empty when disabled
	Selected bool   // Restrict candidates to paths read from stdin
	Workers  int    // Number of concurrent metadata extraction workers
	Verbose  bool
}

// Tolerance returns the match tolerance window as a duration.
func (c *Config) Tolerance() time.Duration {
	return time.Duration(c.Delta) * time.Second
}
