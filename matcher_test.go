package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type recordedWrite struct {
	photo PhotoRecord
	point TrackPoint
}

// fakeWriter records location writes instead of touching files.
type fakeWriter struct {
	writes    []recordedWrite
	failPaths map[string]bool
}

func (f *fakeWriter) WriteLocation(rec PhotoRecord, pt TrackPoint) error {
	if f.failPaths[rec.Path] {
		return fmt.Errorf("simulated write failure for %s", rec.Path)
	}
	f.writes = append(f.writes, recordedWrite{photo: rec, point: pt})
	return nil
}

func photoAt(path string, sec int64) PhotoRecord {
	return PhotoRecord{Path: path, CaptureTime: time.Unix(sec, 0).UTC()}
}

func twoPointTrack(t *testing.T) *TrackIndex {
	t.Helper()
	ti, err := NewTrackIndex([]TrackPoint{
		trkpt(100, 1.0, 1.0),
		trkpt(200, 2.0, 2.0),
	})
	if err != nil {
		t.Fatalf("NewTrackIndex failed: %v", err)
	}
	return ti
}

func TestMatcherAcceptsWithinTolerance(t *testing.T) {
	track := twoPointTrack(t)

	cases := []struct {
		name      string
		photoTime int64
		delta     time.Duration
		wantLat   float64
		wantMatch bool
	}{
		{"gap 30 within delta 60", 130, 60 * time.Second, 1.0, true},
		{"gap 30 at delta 30 boundary", 170, 30 * time.Second, 2.0, true},
		{"gap 300 beyond delta 60", 500, 60 * time.Second, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			writer := &fakeWriter{}
			m := NewMatcher(track, writer, nil, tc.delta, false, false)
			stats := m.Run([]PhotoRecord{photoAt("photo.jpg", tc.photoTime)})

			if tc.wantMatch {
				if stats.Matched != 1 || stats.Updated != 1 || stats.Skipped != 0 {
					t.Fatalf("Expected match, got stats %+v", stats)
				}
				if len(writer.writes) != 1 {
					t.Fatalf("Expected 1 write, got %d", len(writer.writes))
				}
				if writer.writes[0].point.Latitude != tc.wantLat {
					t.Errorf("Expected write with lat %v, got %v", tc.wantLat, writer.writes[0].point.Latitude)
				}
			} else {
				if stats.Matched != 0 || stats.Updated != 0 || stats.Skipped != 1 {
					t.Fatalf("Expected skip, got stats %+v", stats)
				}
				if len(writer.writes) != 0 {
					t.Fatalf("Expected no writes, got %d", len(writer.writes))
				}
			}
		})
	}
}

// A photo is updated iff the minimal time gap to any track point is within
// the tolerance, for any tolerance.
func TestMatcherToleranceProperty(t *testing.T) {
	track := twoPointTrack(t)
	photo := photoAt("photo.jpg", 130) // minimal gap is 30s

	for _, deltaSec := range []int{0, 10, 29, 30, 31, 60, 300} {
		writer := &fakeWriter{}
		m := NewMatcher(track, writer, nil, time.Duration(deltaSec)*time.Second, false, false)
		stats := m.Run([]PhotoRecord{photo})

		wantUpdated := 0
		if deltaSec >= 30 {
			wantUpdated = 1
		}
		if stats.Updated != wantUpdated {
			t.Errorf("delta=%ds: expected %d updated, got %d", deltaSec, wantUpdated, stats.Updated)
		}
	}
}

func TestMatcherDryRunNeverWrites(t *testing.T) {
	track := twoPointTrack(t)
	writer := &fakeWriter{}
	m := NewMatcher(track, writer, nil, 60*time.Second, true, false)

	stats := m.Run([]PhotoRecord{
		photoAt("a.jpg", 130),
		photoAt("b.jpg", 170),
		photoAt("c.jpg", 500),
	})

	if len(writer.writes) != 0 {
		t.Fatalf("Dry run performed %d writes", len(writer.writes))
	}
	if stats.Checked != 3 || stats.Matched != 2 || stats.Skipped != 1 {
		t.Fatalf("Dry run counters wrong: %+v", stats)
	}
	if stats.Updated != 0 {
		t.Fatalf("Dry run reported %d updates", stats.Updated)
	}
}

func TestMatcherWriteFailureContinues(t *testing.T) {
	track := twoPointTrack(t)
	writer := &fakeWriter{failPaths: map[string]bool{"bad.jpg": true}}
	m := NewMatcher(track, writer, nil, 60*time.Second, false, false)

	stats := m.Run([]PhotoRecord{
		photoAt("bad.jpg", 130),
		photoAt("good.jpg", 170),
	})

	if stats.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", stats.Errors)
	}
	if stats.Updated != 1 {
		t.Errorf("Expected processing to continue after a failure, got %d updated", stats.Updated)
	}
	if len(writer.writes) != 1 || writer.writes[0].photo.Path != "good.jpg" {
		t.Fatalf("Expected one successful write for good.jpg, got %+v", writer.writes)
	}
}

func TestMatcherAddsUpdatedPhotosToAlbum(t *testing.T) {
	libraryRoot := t.TempDir()
	photoPath := filepath.Join(libraryRoot, "photo.jpg")
	if err := os.WriteFile(photoPath, []byte("jpeg bytes"), 0644); err != nil {
		t.Fatalf("Failed to write photo: %v", err)
	}

	album, err := NewAlbum(libraryRoot, "Hikes")
	if err != nil {
		t.Fatalf("NewAlbum failed: %v", err)
	}

	track := twoPointTrack(t)
	writer := &fakeWriter{}
	m := NewMatcher(track, writer, album, 60*time.Second, false, false)
	m.Run([]PhotoRecord{photoAt(photoPath, 130)})

	if album.Added() != 1 {
		t.Fatalf("Expected 1 photo in album, got %d", album.Added())
	}
	if _, err := os.Stat(filepath.Join(libraryRoot, "Hikes", "photo.jpg")); err != nil {
		t.Fatalf("Album copy missing: %v", err)
	}
}

func TestMatcherDryRunSkipsAlbum(t *testing.T) {
	libraryRoot := t.TempDir()
	photoPath := filepath.Join(libraryRoot, "photo.jpg")
	if err := os.WriteFile(photoPath, []byte("jpeg bytes"), 0644); err != nil {
		t.Fatalf("Failed to write photo: %v", err)
	}

	album, err := NewAlbum(libraryRoot, "Hikes")
	if err != nil {
		t.Fatalf("NewAlbum failed: %v", err)
	}

	track := twoPointTrack(t)
	m := NewMatcher(track, &fakeWriter{}, album, 60*time.Second, true, false)
	m.Run([]PhotoRecord{photoAt(photoPath, 130)})

	if album.Added() != 0 {
		t.Fatalf("Dry run added %d photos to album", album.Added())
	}
}
