package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/nba-mvp/internal/cache"
	"github.com/pfrederiksen/nba-mvp/internal/logger"
	"github.com/pfrederiksen/nba-mvp/internal/metrics"
	"github.com/pfrederiksen/nba-mvp/internal/storage"
	"github.com/pfrederiksen/nba-mvp/internal/table"
)

const (
	DefaultBaseURL = "https://www.basketball-reference.com"
	UserAgent      = "nba-mvp/1.0 (github.com/pfrederiksen/nba-mvp)"
	Timeout        = 30 * time.Second
	CrawlDelay     = 3 * time.Second

	// SeasonColumn is the default name of the column appended to every scraped row
	SeasonColumn = "year"
)

// Page sources reported to metrics
const (
	SourceDisk    = "disk"
	SourceCache   = "cache"
	SourceNetwork = "network"
	SourceBrowser = "browser"
)

// Options configures a Scraper
type Options struct {
	BaseURL    string
	UserAgent  string
	CrawlDelay time.Duration
	Timeout    time.Duration
	Retry      Retry
	// SeasonColumn names the appended season column.
	SeasonColumn string
	// Refetch ignores raw pages already on disk. A configured page cache is still used.
	Refetch bool
}

// Option customizes a Scraper
type Option func(*Scraper)

// WithCache adds a shared page cache consulted before the network
func WithCache(c cache.PageCache) Option {
	return func(s *Scraper) { s.cache = c }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics manager
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Scraper) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithFetcher replaces the HTTP fetcher
func WithFetcher(f Fetcher) Option {
	return func(s *Scraper) { s.http = f }
}

// WithBrowser sets the fetcher used for kinds that need rendering. Without one those
// kinds fall back to plain HTTP.
func WithBrowser(f Fetcher) Option {
	return func(s *Scraper) { s.browser = f }
}

// Scraper downloads season pages and writes processed tables
type Scraper struct {
	opts    Options
	store   *storage.Storage
	http    Fetcher
	browser Fetcher
	cache   cache.PageCache
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
	metrics *metrics.Manager
}

// New creates a Scraper writing under store
func New(opts Options, store *storage.Storage, options ...Option) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.SeasonColumn == "" {
		opts.SeasonColumn = SeasonColumn
	}
	if opts.Retry == (Retry{}) {
		opts.Retry = DefaultRetry()
	}

	limit := rate.Inf
	if opts.CrawlDelay > 0 {
		limit = rate.Every(opts.CrawlDelay)
	}

	s := &Scraper{
		opts:    opts,
		store:   store,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.Default(),
		metrics: metrics.NewManager(),
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "basketball-reference",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// A missing page says nothing about the site's health
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.Code == http.StatusNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn("Circuit breaker state changed", logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	for _, o := range options {
		o(s)
	}
	if s.http == nil {
		s.http = NewHTTPFetcher(opts.UserAgent, opts.Timeout, opts.Retry)
	}
	return s
}

// Summary reports one kind's scrape
type Summary struct {
	Kind    string         `json:"kind"`
	Seasons int            `json:"seasons"`
	Rows    int            `json:"rows"`
	Output  string         `json:"output"`
	Sources map[string]int `json:"sources"`
}

// Page returns the raw page for one season, fetching it only when it is not already on
// disk or in the cache. Refetch skips the disk copy but still accepts a cached page, which
// the cache TTL keeps fresh. Pages from the cache or the network are saved to disk.
func (s *Scraper) Page(ctx context.Context, kind Kind, year int) (html, source string, err error) {
	if !s.opts.Refetch {
		html, ok, err := s.store.LoadRawPage(kind.Name, year)
		if err != nil {
			return "", "", err
		}
		if ok {
			return html, SourceDisk, nil
		}
	}

	url := kind.URL(s.opts.BaseURL, year)
	if s.cache != nil {
		html, ok, err := s.cache.Get(ctx, url)
		if err != nil {
			s.log.Warn("Page cache read failed", logger.Fields{"url": url, "error": err.Error()})
		} else if ok {
			if err := s.store.SaveRawPage(kind.Name, year, html); err != nil {
				return "", "", err
			}
			return html, SourceCache, nil
		}
	}

	fetcher, source := s.http, SourceNetwork
	if kind.Browser && s.browser != nil {
		fetcher, source = s.browser, SourceBrowser
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", "", err
	}
	s.log.Debug("Fetching page", logger.Fields{"kind": kind.Name, "year": year, "url": url, "source": source})

	res, err := s.breaker.Execute(func() (interface{}, error) {
		return fetcher.Fetch(ctx, url)
	})
	if err != nil {
		return "", "", fmt.Errorf("fetching %s %d: %w", kind.Name, year, err)
	}
	html = res.(string)

	if err := s.store.SaveRawPage(kind.Name, year, html); err != nil {
		return "", "", err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, url, html); err != nil {
			s.log.Warn("Page cache write failed", logger.Fields{"url": url, "error": err.Error()})
		}
	}
	return html, source, nil
}

// Scrape collects one kind for every season, tags rows with the season and writes the
// processed artifact. Nothing is written if any season fails.
func (s *Scraper) Scrape(ctx context.Context, kind Kind, years []int) (*Summary, error) {
	sum := &Summary{
		Kind:    kind.Name,
		Output:  s.store.Path(kind.Artifact),
		Sources: make(map[string]int),
	}

	var parts []*table.Table
	for _, year := range years {
		html, source, err := s.Page(ctx, kind, year)
		if err != nil {
			return nil, err
		}
		s.metrics.PageFetched(kind.Name, source)
		sum.Sources[source]++

		t, err := Parse(kind, html)
		if err != nil {
			return nil, fmt.Errorf("season %d: %w", year, err)
		}
		season := strconv.Itoa(year)
		parts = append(parts, t.Drop(s.opts.SeasonColumn).AddColumn(s.opts.SeasonColumn, func(int, []string) string {
			return season
		}))
		s.log.Debug("Parsed page", logger.Fields{"kind": kind.Name, "year": year, "rows": t.Len()})
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s: no seasons requested", kind.Name)
	}

	out := parts[0].Concat(parts[1:]...).WithName(kind.Artifact.Name)
	if err := s.store.SaveTable(kind.Artifact, out); err != nil {
		return nil, err
	}

	sum.Seasons = len(parts)
	sum.Rows = out.Len()
	s.log.Info("Scraped pages", logger.Fields{
		"kind":    kind.Name,
		"seasons": sum.Seasons,
		"rows":    sum.Rows,
		"output":  sum.Output,
	})
	return sum, nil
}

// ScrapeAll scrapes each kind in turn and stops at the first failure
func (s *Scraper) ScrapeAll(ctx context.Context, kinds []Kind, years []int) ([]*Summary, error) {
	var out []*Summary
	for _, k := range kinds {
		sum, err := s.Scrape(ctx, k, years)
		if err != nil {
			return out, err
		}
		out = append(out, sum)
	}
	return out, nil
}
