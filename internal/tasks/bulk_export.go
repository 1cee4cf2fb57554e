package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/embyx/internal/formatter"
	"github.com/desertthunder/embyx/internal/models"
	"github.com/desertthunder/embyx/internal/shared"
	"github.com/desertthunder/embyx/internal/uri"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestName     = "export_manifest.json"
)

// TrackSource resolves uris to tracks.
type TrackSource interface {
	LookupMany(ctx context.Context, uris []string) (map[string][]models.Track, error)
}

// BulkExportOpts contains configuration for bulk exports.
type BulkExportOpts struct {
	Format     string  // Export format: text, csv, markdown, json
	OutputDir  string  // Base output directory (default: emby_export_{epoch})
	NumWorkers int     // Concurrent file writers (default: 4, at most 10)
	RateLimit  float64 // Lookups per second (default: 5)
}

// ExportResult is the outcome of exporting one uri.
type ExportResult struct {
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Tracks  int    `json:"tracks"`
	File    string `json:"file,omitempty"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Message string `json:"error,omitempty"`

	index int
}

// BulkExportResult summarizes a bulk export. Results keep the order of the input uris.
type BulkExportResult struct {
	Total           int            `json:"total"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	OutputDirectory string         `json:"output_directory"`
	ManifestPath    string         `json:"-"`
	Results         []ExportResult `json:"results"`
}

type exportJob struct {
	index  int
	uri    string
	tracks []models.Track
}

// Exporter writes library contents to files.
type Exporter struct {
	source TrackSource
	logger *log.Logger
}

func NewExporter(source TrackSource, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Exporter{source: source, logger: shared.WithLogger(logger, "component", "export")}
}

// BulkExport exports many uris concurrently with rate limiting and progress tracking.
//
// Lookups run one at a time through the limiter; file writes fan out to a worker pool.
// A uri that fails or resolves to no tracks is recorded as failed and does not stop the
// others. A manifest summarizing every result is written to the output directory.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	uris []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: track source not initialized", shared.ErrInvalidInput)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if _, ok := extensions[opts.Format]; !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("emby_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Total:           len(uris),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ExportResult, 0, len(uris)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(uris))
	results := make(chan ExportResult, len(uris))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, u := range uris {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, fetchingTracksUpdate(i+1, len(uris), u))

			byURI, err := e.source.LookupMany(ctx, []string{u})
			if err == nil && len(byURI[u]) == 0 {
				err = fmt.Errorf("%w: no tracks for %s", shared.ErrItemNotFound, u)
			}
			if err != nil {
				results <- failed(i, u, fmt.Errorf("failed to fetch tracks: %w", err))
				continue
			}
			jobs <- exportJob{index: i, uri: u, tracks: byURI[u]}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			sendProgress(prog, exportDoneUpdate(completed, len(uris), res.Name, res.Tracks))
		} else {
			result.Failed++
			e.logger.Warn("export failed", "uri", res.URI, "error", res.Error)
			sendProgress(prog, exportFailedUpdate(completed, len(uris), res.URI, res.Error))
		}
	}

	slices.SortFunc(result.Results, func(a, b ExportResult) int { return a.index - b.index })

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	data, err := formatter.ToJSON(result, true)
	if err == nil {
		err = os.WriteFile(manifestPath, data, 0644)
	}
	if err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that writes export files from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- ExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- failed(job.index, job.uri, err)
			continue
		}
		results <- exportOne(job, opts)
	}
}

var extensions = map[string]string{
	formatter.FormatText:     ".txt",
	formatter.FormatCSV:      ".csv",
	formatter.FormatMarkdown: ".md",
	formatter.FormatJSON:     ".json",
}

// exportOne writes the tracks of a single uri in the requested format.
func exportOne(j exportJob, opts BulkExportOpts) ExportResult {
	name := ExportName(j.uri, j.tracks)
	path := filepath.Join(opts.OutputDir, FileName(j.uri)+extensions[opts.Format])

	if err := formatter.WriteTracksExport(name, j.tracks, opts.Format, path); err != nil {
		res := failed(j.index, j.uri, err)
		res.Name = name
		return res
	}

	return ExportResult{
		URI:     j.uri,
		Name:    name,
		Tracks:  len(j.tracks),
		File:    path,
		Success: true,
		index:   j.index,
	}
}

func failed(index int, u string, err error) ExportResult {
	return ExportResult{URI: u, Name: u, Error: err, Message: err.Error(), index: index}
}

// ExportName titles an export: the album name for albums, the first artist for
// artists and the track name for tracks. Anything else keeps the uri.
func ExportName(u string, tracks []models.Track) string {
	kind, _, err := uri.Parse(u)
	if err != nil || len(tracks) == 0 {
		return u
	}

	first := tracks[0]
	switch kind {
	case models.KindAlbum:
		if first.Album.Name != "" {
			return first.Album.Name
		}
	case models.KindArtist:
		if len(first.Artists) > 0 {
			return first.Artists[0].Name
		}
	case models.KindTrack:
		return first.Name
	}
	return u
}

// FileName turns a uri into a file name without extension.
func FileName(u string) string {
	return strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(u)
}
