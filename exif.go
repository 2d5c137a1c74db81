package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register maker note handlers
	exif.RegisterParsers(mknote.All...)
}

// PhotoMetadata is the subset of photo metadata the matcher cares about.
type PhotoMetadata struct {
	CaptureTime time.Time
	Latitude    float64
	Longitude   float64
	HasLocation bool
}

// readExifMetadata reads the capture timestamp and GPS position using the
// native EXIF decoder. Files without a decodable EXIF block yield empty
// metadata rather than an error; the caller falls back to exiftool or
// filename parsing.
func readExifMetadata(path string) (*PhotoMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return &PhotoMetadata{}, nil
	}

	meta := &PhotoMetadata{}

	if tm, err := x.DateTime(); err == nil {
		meta.CaptureTime = tm
	}

	if lat, lon, err := x.LatLong(); err == nil {
		meta.Latitude = lat
		meta.Longitude = lon
		meta.HasLocation = true
	}

	return meta, nil
}
