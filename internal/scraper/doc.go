// Package scraper downloads season pages from basketball-reference.com and extracts
// their stat tables.
//
// Every page is kept as raw HTML under the data directory, so a rerun only hits the
// network for seasons it has not seen. Network requests share one crawl-delay limiter
// and one circuit breaker. Per-game pages can be rendered in a headless browser because
// parts of them are loaded by script.
//
// Tables are addressed by id. Tables the site ships inside HTML comments are unwrapped
// before parsing. Repeated header rows and over-header rows are skipped, and columns
// that identify a team are named from their data-stat attribute so that layout changes
// between seasons do not change the output schema.
package scraper
