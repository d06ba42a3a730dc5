package pipeline

import (
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/config"
	"github.com/pfrederiksen/nba-mvp/internal/eligibility"
	"github.com/pfrederiksen/nba-mvp/internal/franchise"
	"github.com/pfrederiksen/nba-mvp/internal/merge"
	"github.com/pfrederiksen/nba-mvp/internal/missing"
	"github.com/pfrederiksen/nba-mvp/internal/model"
	"github.com/pfrederiksen/nba-mvp/internal/scraper"
)

// MergeOptions builds the merger configuration from cfg
func MergeOptions(cfg *config.Config) merge.Options {
	s := cfg.Schema
	opts := merge.Options{
		Columns: merge.Columns{
			Season:      s.Season,
			Player:      s.Player,
			Team:        s.Team,
			TeamName:    s.TeamName,
			WinLossPct:  s.WinLossPct,
			GamesBehind: s.GamesBehind,
			Playoffs:    s.Playoffs,
			ShareColumn: s.ShareColumn,
			RankColumn:  s.RankColumn,
			FirstColumn: s.FirstVotesName,
			VoteShare:   s.VoteShare,
			VoteRank:    s.VoteRank,
			FirstPlace:  s.FirstPlace,
		},
		Aliases:    cfg.Franchise.Aliases,
		TradeCodes: cfg.Franchise.TradeCodes,
		Reconcile: franchise.Options{
			Swaps:     franchise.ParseSwaps(cfg.Franchise.Swaps),
			UseLookup: cfg.Franchise.UseLookup,
		},
	}
	if cfg.Franchise.UseLookup {
		opts.Reconcile.Entries = franchise.Teams
	}
	return opts
}

// EligibilityFilter builds the eligibility filter from cfg, applying floor overrides in order
func EligibilityFilter(cfg *config.Config, overrides ...eligibility.Floor) *eligibility.Filter {
	s := cfg.Schema
	e := cfg.Eligibility

	f := eligibility.NewFilter(eligibility.Columns{
		Player:            s.Player,
		Playoffs:          s.Playoffs,
		Games:             s.Games,
		Points:            s.Points,
		FieldGoalAttempts: s.FieldGoalAttempts,
		Rebounds:          s.Rebounds,
		Assists:           s.Assists,
		FieldGoalPct:      s.FieldGoalPct,
		Minutes:           s.Minutes,
		PER:               s.PER,
	}, eligibility.Thresholds{
		Games:             e.MinGames,
		Points:            e.MinPoints,
		FieldGoalAttempts: e.MinFGA,
		Rebounds:          e.MinRebounds,
		Assists:           e.MinAssists,
		FieldGoalPct:      e.MinFGPct,
		Minutes:           e.MinMinutes,
		PER:               e.MinPER,
	}, s.Extended)

	f.RequirePlayoffs = e.RequirePlayoffs
	f.DropColumns = append([]string(nil), e.DropColumns...)

	for _, fl := range overrides {
		f = f.With(fl)
	}
	return f
}

// Normalizer builds the missing-value normalizer from cfg
func Normalizer(cfg *config.Config) *missing.Normalizer {
	return &missing.Normalizer{
		Whitelist:    cfg.Missing.Whitelist,
		Default:      cfg.Missing.Default,
		PlayerColumn: cfg.Schema.Player,
	}
}

// ModelOptions builds the regression options from cfg. Column names are lower-cased to
// match player_data.
func ModelOptions(cfg *config.Config) model.Options {
	return model.Options{
		Target:      strings.ToLower(cfg.Schema.VoteShare),
		Season:      strings.ToLower(cfg.Schema.Season),
		Player:      strings.ToLower(cfg.Schema.Player),
		Exclude:     append([]string{strings.ToLower(cfg.Schema.VoteRank), strings.ToLower(cfg.Schema.FirstPlace)}, cfg.Model.Exclude...),
		Lambda:      cfg.Model.RidgeLambda,
		TestSeasons: cfg.Model.TestSeasons,
	}
}

// ScraperOptions builds the scraper options from cfg
func ScraperOptions(cfg *config.Config) scraper.Options {
	retry := scraper.DefaultRetry()
	if cfg.Scrape.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Scrape.MaxAttempts
	}
	return scraper.Options{
		BaseURL:      cfg.Scrape.BaseURL,
		UserAgent:    cfg.Scrape.UserAgent,
		CrawlDelay:   cfg.Scrape.CrawlDelay,
		Timeout:      cfg.Scrape.Timeout,
		Retry:        retry,
		SeasonColumn: cfg.Schema.Season,
		Refetch:      cfg.Scrape.Refetch,
	}
}
