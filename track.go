package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/btree"
	"github.com/tkrajina/gpxgo/gpx"
)

// ErrEmptyTrack is returned when a track log contains no timestamped points.
var ErrEmptyTrack = errors.New("track log contains no timestamped points")

// TrackPoint is a single timestamped position from a GPX track log.
// Immutable once loaded.
type TrackPoint struct {
	Time         time.Time
	Latitude     float64
	Longitude    float64
	Elevation    float64
	HasElevation bool
}

func trackPointLess(a, b TrackPoint) bool {
	return a.Time.Before(b.Time)
}

// TrackIndex holds track points ordered by timestamp and answers
// nearest-in-time lookups. Read-only after construction.
type TrackIndex struct {
	points   *btree.BTreeG[TrackPoint]
	earliest TrackPoint
	latest   TrackPoint
}

// NewTrackIndex builds an index from a sequence of track points. Points
// without a timestamp are dropped. When two points share a timestamp the
// first one loaded wins.
func NewTrackIndex(points []TrackPoint) (*TrackIndex, error) {
	tree := btree.NewG(2, trackPointLess)
	for _, p := range points {
		if p.Time.IsZero() {
			continue
		}
		if tree.Has(p) {
			continue
		}
		tree.ReplaceOrInsert(p)
	}

	if tree.Len() == 0 {
		return nil, ErrEmptyTrack
	}

	ti := &TrackIndex{points: tree}
	ti.earliest, _ = tree.Min()
	ti.latest, _ = tree.Max()
	return ti, nil
}

// LoadTrackIndex parses a GPX file and indexes every timestamped point from
// all tracks and segments.
func LoadTrackIndex(path string) (*TrackIndex, error) {
	data, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX file %s: %w", path, err)
	}

	var points []TrackPoint
	for _, trk := range data.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				if p.Timestamp.IsZero() {
					continue
				}

				tp := TrackPoint{
					Time:      p.Timestamp.UTC(),
					Latitude:  p.Latitude,
					Longitude: p.Longitude,
				}
				if p.Elevation.NotNull() {
					tp.Elevation = p.Elevation.Value()
					tp.HasElevation = true
				}
				points = append(points, tp)
			}
		}
	}

	return NewTrackIndex(points)
}

// Nearest returns the track point closest in time to t together with the
// magnitude of the gap. When a point before and a point after t are
// equidistant, the earlier point is returned.
func (ti *TrackIndex) Nearest(t time.Time) (TrackPoint, time.Duration) {
	pivot := TrackPoint{Time: t}

	var before, after TrackPoint
	var haveBefore, haveAfter bool
	ti.points.DescendLessOrEqual(pivot, func(p TrackPoint) bool {
		before, haveBefore = p, true
		return false
	})
	ti.points.AscendGreaterOrEqual(pivot, func(p TrackPoint) bool {
		after, haveAfter = p, true
		return false
	})

	switch {
	case haveBefore && haveAfter:
		gapBefore := t.Sub(before.Time)
		gapAfter := after.Time.Sub(t)
		if gapBefore <= gapAfter {
			return before, gapBefore
		}
		return after, gapAfter
	case haveBefore:
		return before, t.Sub(before.Time)
	default:
		return after, after.Time.Sub(t)
	}
}

// Len returns the number of indexed track points.
func (ti *TrackIndex) Len() int {
	return ti.points.Len()
}

// Earliest returns the first track point in time order.
func (ti *TrackIndex) Earliest() TrackPoint {
	return ti.earliest
}

// Latest returns the last track point in time order.
func (ti *TrackIndex) Latest() TrackPoint {
	return ti.latest
}
