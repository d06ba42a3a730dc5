// Package cli implements the command-line interface for nba-mvp.
//
// The cli package provides the Cobra-based CLI with one command per pipeline stage
// (scrape, merge, clean, train, export) plus run, which chains merge and clean.
// Configuration comes from a YAML file and NBA_MVP_ environment variables; the
// persistent flags override the most common settings. Stage reports are printed as
// text or JSON.
package cli
