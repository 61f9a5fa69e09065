package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"riddle/pkg/errors"
	"riddle/pkg/filter"
	"riddle/pkg/logger"
	"riddle/pkg/ui"
)

// Outcome is the terminal state of one image reference
type Outcome int

const (
	Downloaded Outcome = iota
	SkippedExisting
	SkippedFiltered
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Downloaded:
		return "downloaded"
	case SkippedExisting:
		return "skipped_existing"
	case SkippedFiltered:
		return "skipped_filtered"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result represents the result of processing one URL
type Result struct {
	URL      string
	Filename string
	Outcome  Outcome
	Size     int64
	Err      error
	Duration time.Duration
}

// Summary aggregates the results of one batch
type Summary struct {
	Dir         string
	Attempted   int
	Succeeded   int
	PreExisting int
	Failed      int
	Filtered    int
	Results     []Result
}

// RecordFiltered accounts for URLs dropped before they reached the downloader
func (s *Summary) RecordFiltered(urls ...string) {
	for _, u := range urls {
		s.Filtered++
		s.Results = append(s.Results, Result{URL: u, Filename: filter.Filename(u), Outcome: SkippedFiltered})
	}
}

func (s *Summary) record(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case Downloaded:
		s.Succeeded++
	case SkippedExisting:
		s.PreExisting++
	case Failed:
		s.Failed++
	}
}

// Store is the destination directory the downloader writes into
type Store interface {
	Dir() string
	Exists(name string) bool
	Save(r io.Reader, name string) (int64, error)
	Remove(name string) error
}

// Progress receives one tick per processed URL
type Progress interface {
	Tick()
}

// Downloader fetches image URLs one at a time into a Store
type Downloader struct {
	httpClient *http.Client
	minSize    int64
	userAgent  string
	console    *ui.Console
	logger     logger.Logger
}

// Option configures a Downloader
type Option func(*Downloader)

// WithUserAgent sets the User-Agent sent to image hosts
func WithUserAgent(agent string) Option {
	return func(d *Downloader) { d.userAgent = agent }
}

// WithConsole sets where inline errors and the summary line are printed
func WithConsole(console *ui.Console) Option {
	return func(d *Downloader) { d.console = console }
}

// New creates a downloader. Files smaller than minSizeKB kilobytes are
// removed after download; 0 disables the check.
func New(httpClient *http.Client, minSizeKB int, log logger.Logger, opts ...Option) *Downloader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if minSizeKB < 0 {
		minSizeKB = 0
	}

	d := &Downloader{
		httpClient: httpClient,
		minSize:    int64(minSizeKB) * 1024,
		logger:     log,
		console:    ui.NewConsole(io.Discard, false),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download processes urls strictly in order. Per-URL failures are reported
// inline and never abort the batch; only context cancellation stops it early.
func (d *Downloader) Download(ctx context.Context, urls []string, store Store, progress Progress) (*Summary, error) {
	summary := &Summary{Dir: store.Dir(), Attempted: len(urls)}

	d.console.Info("Downloading %d images to %s", len(urls), store.Dir())

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := d.processURL(ctx, u, store)
		summary.record(result)

		if result.Err != nil {
			// end the partially drawn bar line first
			if progress != nil && i > 0 {
				fmt.Fprintln(d.console.Writer())
			}
			d.console.Error("%v", result.Err)
		}
		if progress != nil {
			progress.Tick()
		}
	}

	d.console.Success("Successfully downloaded %d out of %d images to %s (%d already existed)",
		summary.Succeeded, summary.Attempted, summary.Dir, summary.PreExisting)

	d.logger.InfoWithFields("batch complete", map[string]interface{}{
		"dir":          summary.Dir,
		"attempted":    summary.Attempted,
		"succeeded":    summary.Succeeded,
		"pre_existing": summary.PreExisting,
		"failed":       summary.Failed,
	})

	return summary, nil
}

// processURL handles a single image reference
func (d *Downloader) processURL(ctx context.Context, u string, store Store) Result {
	start := time.Now()
	result := Result{URL: u, Filename: filter.Filename(u), Outcome: Failed}

	if result.Filename == "" {
		result.Err = errors.New(errors.ErrorTypeURL, fmt.Sprintf("cannot derive a filename from %s", u))
		result.Duration = time.Since(start)
		return result
	}

	if store.Exists(result.Filename) {
		d.logger.DebugWithFields("image already exists", map[string]interface{}{
			"filename": result.Filename,
		})
		result.Outcome = SkippedExisting
		result.Duration = time.Since(start)
		return result
	}

	size, err := d.fetch(ctx, u, store, result.Filename)
	result.Size = size
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		d.logger.ErrorWithFields("failed to download image", map[string]interface{}{
			"url":      u,
			"error":    err.Error(),
			"duration": result.Duration,
		})
		return result
	}

	if d.minSize > 0 && size < d.minSize {
		result.Err = &errors.Error{
			Type:    errors.ErrorTypeUndersized,
			Message: fmt.Sprintf("%s is %d bytes, below the %d byte minimum", result.Filename, size, d.minSize),
		}
		if rmErr := store.Remove(result.Filename); rmErr != nil {
			d.console.Error("failed to remove %s: %v", result.Filename, rmErr)
		}
		d.logger.DebugWithFields("removed undersized image", map[string]interface{}{
			"filename": result.Filename,
			"size":     size,
		})
		return result
	}

	result.Outcome = Downloaded
	d.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"filename": result.Filename,
		"size":     size,
		"duration": result.Duration,
	})
	return result
}

// fetch streams one URL into the store. The store only exposes the file
// under its final name once the body was fully written.
func (d *Downloader) fetch(ctx context.Context, u string, store Store, name string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeURL, err, "invalid image URL")
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeNetwork, err, fmt.Sprintf("connection error for %s", u))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, errors.HTTPStatus(resp.StatusCode, u)
	}

	n, err := store.Save(resp.Body, name)
	if err != nil {
		return n, errors.Wrap(errors.ErrorTypeFilesystem, err, fmt.Sprintf("failed to save %s", name))
	}
	return n, nil
}
