package main

import (
	"fmt"
	"time"

	exiftool "github.com/barasher/go-exiftool"
)

// exifDateLayout is the timestamp format exiftool reports and accepts.
const exifDateLayout = "2006:01:02 15:04:05"

// captureTimeTags are checked in order when reading a capture timestamp.
var captureTimeTags = []string{
	"DateTimeOriginal",
	"CreateDate",
	"DateTimeDigitized",
	"ModifyDate",
}

// ExifTool wraps a long-lived exiftool process for metadata reads and GPS
// writes. It handles every format the library may contain, including videos
// that the native EXIF decoder cannot parse. Not safe for concurrent use;
// each worker holds its own instance.
type ExifTool struct {
	et *exiftool.Exiftool
}

// NewExifTool starts an exiftool subprocess. Fails when the exiftool binary
// is not installed.
func NewExifTool() (*ExifTool, error) {
	et, err := exiftool.NewExiftool(exiftool.CoordFormant("%+f"))
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool (is it installed?): %w", err)
	}
	return &ExifTool{et: et}, nil
}

// Close shuts the exiftool subprocess down.
func (e *ExifTool) Close() {
	if e.et != nil {
		e.et.Close()
	}
}

// ReadMetadata extracts the capture timestamp and any existing GPS position
// from a media file.
func (e *ExifTool) ReadMetadata(path string) (*PhotoMetadata, error) {
	metas := e.et.ExtractMetadata(path)
	if len(metas) == 0 {
		return nil, fmt.Errorf("no metadata extracted from %s", path)
	}
	fm := metas[0]
	if fm.Err != nil {
		return nil, fmt.Errorf("failed to extract metadata from %s: %w", path, fm.Err)
	}

	meta := &PhotoMetadata{}

	lat, latErr := fm.GetFloat("GPSLatitude")
	lon, lonErr := fm.GetFloat("GPSLongitude")
	if latErr == nil && lonErr == nil {
		meta.Latitude = lat
		meta.Longitude = lon
		meta.HasLocation = true
	}

	for _, tag := range captureTimeTags {
		val, err := fm.GetString(tag)
		if err != nil || val == "" {
			continue
		}
		t, err := time.Parse(exifDateLayout, val)
		if err != nil {
			continue
		}
		meta.CaptureTime = t
		break
	}

	return meta, nil
}

// WriteGPS writes a track point's position into the file's GPS tags.
func (e *ExifTool) WriteGPS(path string, pt TrackPoint) error {
	metas := e.et.ExtractMetadata(path)
	if len(metas) == 0 {
		return fmt.Errorf("no metadata extracted from %s", path)
	}
	fm := metas[0]
	if fm.Err != nil {
		return fmt.Errorf("failed to extract metadata from %s: %w", path, fm.Err)
	}

	latRef := "N"
	if pt.Latitude < 0 {
		latRef = "S"
	}
	lonRef := "E"
	if pt.Longitude < 0 {
		lonRef = "W"
	}

	fm.SetFloat("GPSLatitude", pt.Latitude)
	fm.SetString("GPSLatitudeRef", latRef)
	fm.SetFloat("GPSLongitude", pt.Longitude)
	fm.SetString("GPSLongitudeRef", lonRef)
	if pt.HasElevation {
		fm.SetFloat("GPSAltitude", pt.Elevation)
		fm.SetString("GPSAltitudeRef", "above sea level")
	}
	fm.SetString("GPSDateStamp", pt.Time.Format("2006:01:02"))
	fm.SetString("GPSTimeStamp", pt.Time.Format("15:04:05"))

	fms := []exiftool.FileMetadata{fm}
	e.et.WriteMetadata(fms)
	if fms[0].Err != nil {
		return fmt.Errorf("failed to write GPS tags to %s: %w", path, fms[0].Err)
	}

	return nil
}
