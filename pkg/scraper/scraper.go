package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"riddle/internal/downloader"
	"riddle/pkg/archive"
	"riddle/pkg/config"
	"riddle/pkg/filter"
	"riddle/pkg/logger"
	"riddle/pkg/storage"
	"riddle/pkg/ui"
)

// FeedReport describes what one feed produced
type FeedReport struct {
	Feed        string
	Destination string
	// Archive is the zip path in zip mode, empty otherwise
	Archive string
	// Fetched counts the URLs returned by the listing, before filtering
	Fetched int
	// Archived counts URLs skipped because the archive already holds them
	Archived int
	Summary  *downloader.Summary
	Packed   *archive.Result
	Err      error
}

// Scraper orchestrates the per-feed download process
type Scraper struct {
	client     FeedClient
	downloader *downloader.Downloader
	filter     *filter.ExtensionFilter
	config     *config.Config
	console    *ui.Console
	logger     logger.Logger
}

// New creates a Scraper. A nil console discards status output and a nil
// logger falls back to the global one.
func New(cfg *config.Config, client FeedClient, console *ui.Console, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	if console == nil {
		console = ui.NewConsole(io.Discard, false)
	}

	httpClient := &http.Client{Timeout: cfg.Download.Timeout}

	return &Scraper{
		client: client,
		downloader: downloader.New(httpClient, cfg.MinSize, log,
			downloader.WithUserAgent(cfg.UserAgent),
			downloader.WithConsole(console)),
		filter:  filter.New(cfg.ImageExtensions),
		config:  cfg,
		console: console,
		logger:  log,
	}
}

// Run processes every feed of opts in order. A failing feed is reported and
// skipped; only cancellation of ctx ends the run early.
func (s *Scraper) Run(ctx context.Context, opts config.RunOptions) ([]FeedReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := s.logger.WithField("run_id", uuid.NewString())
	log.InfoWithFields("run started", map[string]interface{}{
		"feeds": opts.Feeds,
		"count": opts.Count,
		"zip":   opts.Zip,
		"nsfw":  opts.NSFW,
	})

	reports := make([]FeedReport, 0, len(opts.Feeds))
	for _, feed := range opts.Feeds {
		report := s.runFeed(ctx, feed, opts, log.WithField("feed", feed))
		reports = append(reports, report)

		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if report.Err != nil {
			s.console.Error("r/%s: %v", feed, report.Err)
		}
	}

	s.console.Success("All downloads finished")
	return reports, nil
}

func (s *Scraper) runFeed(ctx context.Context, feed string, opts config.RunOptions, log logger.Logger) FeedReport {
	report := FeedReport{Feed: feed, Destination: opts.Destination(feed)}

	s.console.Info("Fetching images for r/%s...", feed)
	urls, err := s.client.HotURLs(ctx, feed, opts.Count, opts.NSFW)
	if err != nil {
		report.Err = fmt.Errorf("failed to fetch listing: %w", err)
		return report
	}
	report.Fetched = len(urls)

	accepted := make([]string, 0, len(urls))
	var rejected []string
	for _, u := range urls {
		if s.filter.Accepts(u) {
			accepted = append(accepted, u)
		} else {
			rejected = append(rejected, u)
		}
	}

	log.DebugWithFields("listing filtered", map[string]interface{}{
		"fetched":  len(urls),
		"accepted": len(accepted),
		"rejected": len(rejected),
	})

	if opts.Zip {
		s.downloadToArchive(ctx, accepted, &report, log)
	} else {
		s.downloadToDirectory(ctx, accepted, &report)
	}

	if report.Summary != nil {
		report.Summary.RecordFiltered(rejected...)
	}
	return report
}

func (s *Scraper) downloadToDirectory(ctx context.Context, urls []string, report *FeedReport) {
	store, err := storage.NewManager(report.Destination)
	if err != nil {
		report.Err = err
		return
	}

	report.Summary, report.Err = s.downloader.Download(ctx, urls, store, s.progress(len(urls)))
}

func (s *Scraper) downloadToArchive(ctx context.Context, urls []string, report *FeedReport, log logger.Logger) {
	report.Archive = report.Destination + ".zip"

	entries, err := archive.Entries(report.Archive)
	if err != nil {
		report.Err = err
		return
	}
	urls, report.Archived = filter.ExcludeNames(urls, entries)
	if report.Archived > 0 {
		s.console.Info("%d images already in %s", report.Archived, report.Archive)
	}

	cache, err := storage.NewManager(s.config.Download.CacheDir)
	if err != nil {
		report.Err = err
		return
	}

	report.Summary, err = s.downloader.Download(ctx, urls, cache, s.progress(len(urls)))
	if err != nil {
		report.Err = err
		return
	}

	s.console.Info("Compressing folder...")
	progress := s.console.Writer()
	if !s.config.UI.Progress || s.console.Quiet() {
		progress = nil
	}
	report.Packed, err = archive.Compress(cache.Dir(), report.Archive, archive.Options{
		Progress: progress,
		Logger:   log,
	})
	if err != nil {
		report.Err = fmt.Errorf("failed to compress %s: %w", cache.Dir(), err)
		s.console.Warning("keeping %s for the next run", cache.Dir())
		return
	}
	s.console.Success("Folder %s compressed to %s.", cache.Dir(), report.Archive)

	if err := cache.RemoveAll(); err != nil {
		s.console.Error("failed to remove %s: %v", cache.Dir(), err)
	}
}

// progress returns a bar for n items, or nil when progress output is off
func (s *Scraper) progress(n int) downloader.Progress {
	if !s.config.UI.Progress || s.console.Quiet() {
		return nil
	}
	return ui.NewProgressBar(s.console.Writer(), n, "[~] Downloading", "Complete")
}
