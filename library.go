package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/karrick/godirwalk"
)

// PhotoRecord is one library photo the matcher may update. The library owns
// the underlying file; the matcher only reads the capture timestamp and
// requests location writes back through the library.
type PhotoRecord struct {
	Path         string
	CaptureTime  time.Time
	FromFilename bool // capture time recovered from the filename, not metadata
}

// mediaMIMETypes are the content types considered for geotagging.
var mediaMIMETypes = []string{
	"image/jpeg",
	"image/tiff",
	"image/png",
	"image/heic",
	"image/heif",
	"video/mp4",
	"video/quicktime",
}

// mediaExtensions is the extension fallback used where content sniffing is
// not available (remote files).
var mediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".png":  true,
	".heic": true,
	".mp4":  true,
	".mov":  true,
}

func isMediaPath(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

func isVideoPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".mp4" || ext == ".mov"
}

// fileIsMedia sniffs a local file's content type.
func fileIsMedia(path string) bool {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	return mimetype.EqualsAny(mtype.String(), mediaMIMETypes...)
}

// examineStatus classifies a scanned photo.
type examineStatus int

const (
	statusCandidate examineStatus = iota
	statusHasLocation
	statusNoTimestamp
)

// PhotoLibrary enumerates photos in a local or SSH-remote directory tree and
// writes GPS positions back through exiftool.
type PhotoLibrary struct {
	root       string
	remote     *SSHClient // nil for local libraries
	remoteRoot string
	et         *ExifTool
	workers    int
	verbose    bool
}

// OpenPhotoLibrary opens a library rooted at a local directory or at a
// user@host:/path location over SSH.
func OpenPhotoLibrary(root string, workers int, verbose bool) (*PhotoLibrary, error) {
	lib := &PhotoLibrary{root: root, workers: workers, verbose: verbose}
	if workers < 1 {
		lib.workers = 1
	}

	if host, dir, ok := parseRemoteRoot(root); ok {
		client, err := NewSSHClient(host)
		if err != nil {
			return nil, fmt.Errorf("failed to open remote library: %w", err)
		}
		lib.remote = client
		lib.remoteRoot = dir
	} else {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot open library root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("library root %s is not a directory", root)
		}
	}

	et, err := NewExifTool()
	if err != nil {
		if lib.remote != nil {
			lib.remote.Close()
		}
		return nil, err
	}
	lib.et = et

	return lib, nil
}

// Remote reports whether the library lives on another machine.
func (l *PhotoLibrary) Remote() bool {
	return l.remote != nil
}

// Close releases the exiftool subprocess and any SSH connection.
func (l *PhotoLibrary) Close() {
	if l.et != nil {
		l.et.Close()
	}
	if l.remote != nil {
		l.remote.Close()
	}
}

// listFiles returns every media file in the library.
func (l *PhotoLibrary) listFiles() ([]string, error) {
	if l.remote != nil {
		files, err := l.remote.ListFiles(l.remoteRoot)
		if err != nil {
			return nil, err
		}
		var media []string
		for _, path := range files {
			if strings.Contains(path, "@eaDir") {
				continue
			}
			if isMediaPath(path) {
				media = append(media, path)
			}
		}
		return media, nil
	}

	var media []string
	err := godirwalk.Walk(l.root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				// Skip @eaDir directories (Synology metadata)
				if strings.Contains(path, "@eaDir") {
					return filepath.SkipDir
				}
				return nil
			}
			if isMediaPath(path) && fileIsMedia(path) {
				media = append(media, path)
			}
			return nil
		},
		Unsorted: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk library: %w", err)
	}

	return media, nil
}

// filterSelected keeps only paths named in the selection. Selection entries
// may be absolute or relative to the library root.
func filterSelected(paths, selected []string, root string) []string {
	want := make(map[string]bool, len(selected))
	for _, s := range selected {
		want[filepath.Clean(s)] = true
	}

	var out []string
	for _, p := range paths {
		if want[filepath.Clean(p)] {
			out = append(out, p)
			continue
		}
		if rel, err := filepath.Rel(root, p); err == nil && want[filepath.Clean(rel)] {
			out = append(out, p)
		}
	}
	return out
}

// Candidates scans the library and returns the photos eligible for matching:
// a known capture timestamp and no existing GPS position. Photos already
// carrying a location never reach the matcher. When selected is non-nil the
// scan is restricted to those paths.
func (l *PhotoLibrary) Candidates(selected []string) ([]PhotoRecord, error) {
	paths, err := l.listFiles()
	if err != nil {
		return nil, err
	}
	if selected != nil {
		root := l.root
		if l.remote != nil {
			root = l.remoteRoot
		}
		paths = filterSelected(paths, selected, root)
	}

	log.Printf("Scanning %d media %s with %d %s",
		len(paths), pluralize(len(paths), "file", "files"),
		l.workers, pluralize(l.workers, "worker", "workers"))

	type scanResult struct {
		rec    PhotoRecord
		status examineStatus
		err    error
	}

	jobs := make(chan string, len(paths))
	results := make(chan scanResult, len(paths))
	var wg sync.WaitGroup

	for w := 0; w < l.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// exiftool instances are not safe to share between goroutines
			et, err := NewExifTool()
			if err != nil {
				for path := range jobs {
					results <- scanResult{err: fmt.Errorf("%s: %w", path, err)}
				}
				return
			}
			defer et.Close()

			for path := range jobs {
				rec, status, err := l.examinePhoto(et, path)
				results <- scanResult{rec: rec, status: status, err: err}
			}
		}()
	}

	go func() {
		for _, path := range paths {
			jobs <- path
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var candidates []PhotoRecord
	located, undated, errored := 0, 0, 0
	for res := range results {
		switch {
		case res.err != nil:
			log.Printf("Warning: %v", res.err)
			errored++
		case res.status == statusHasLocation:
			located++
		case res.status == statusNoTimestamp:
			if l.verbose {
				log.Printf("Skipping %s: no capture timestamp", res.rec.Path)
			}
			undated++
		default:
			candidates = append(candidates, res.rec)
		}
	}

	log.Printf("Scan complete: %d already located, %d without timestamp, %d unreadable",
		located, undated, errored)

	return candidates, nil
}

// examinePhoto reads one photo's metadata and classifies it.
func (l *PhotoLibrary) examinePhoto(et *ExifTool, path string) (PhotoRecord, examineStatus, error) {
	localPath := path
	if l.remote != nil {
		tmp, err := l.fetchRemote(path)
		if err != nil {
			return PhotoRecord{}, 0, err
		}
		defer os.Remove(tmp)
		localPath = tmp
	}

	meta, err := readMetadata(et, localPath)
	if err != nil {
		return PhotoRecord{}, 0, fmt.Errorf("failed to read metadata from %s: %w", path, err)
	}

	rec, status := classifyPhoto(path, meta)
	return rec, status, nil
}

// classifyPhoto decides whether a scanned photo is a candidate for matching.
// Photos that already carry a location never become candidates, regardless
// of their capture timestamp.
func classifyPhoto(path string, meta *PhotoMetadata) (PhotoRecord, examineStatus) {
	rec := PhotoRecord{Path: path}
	if meta.HasLocation {
		return rec, statusHasLocation
	}

	rec.CaptureTime = meta.CaptureTime
	if rec.CaptureTime.IsZero() {
		t, err := captureTimeFromFilename(path)
		if err != nil {
			return rec, statusNoTimestamp
		}
		rec.CaptureTime = t
		rec.FromFilename = true
	}

	return rec, statusCandidate
}

// readMetadata uses the native EXIF decoder where it can (it is much faster
// than round-tripping through exiftool) and falls back to exiftool for videos
// and formats it cannot decode.
func readMetadata(et *ExifTool, path string) (*PhotoMetadata, error) {
	if isVideoPath(path) {
		return et.ReadMetadata(path)
	}

	meta, err := readExifMetadata(path)
	if err != nil {
		return nil, err
	}
	if !meta.CaptureTime.IsZero() || meta.HasLocation {
		return meta, nil
	}

	return et.ReadMetadata(path)
}

// fetchRemote downloads a remote photo to a temp file. The caller removes it.
func (l *PhotoLibrary) fetchRemote(remotePath string) (string, error) {
	tempFile, err := os.CreateTemp("", "photo-*"+filepath.Ext(remotePath))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	tempFile.Close()

	if err := l.remote.DownloadFile(remotePath, tempPath); err != nil {
		os.Remove(tempPath)
		return "", err
	}
	return tempPath, nil
}

// WriteLocation writes a track point's position into a photo's GPS tags.
// Remote photos are round-tripped through a temp file.
func (l *PhotoLibrary) WriteLocation(rec PhotoRecord, pt TrackPoint) error {
	if l.remote == nil {
		return l.et.WriteGPS(rec.Path, pt)
	}

	tmp, err := l.fetchRemote(rec.Path)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := l.et.WriteGPS(tmp, pt); err != nil {
		return err
	}
	return l.remote.UploadFile(tmp, rec.Path)
}
