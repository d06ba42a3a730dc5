// Package config defines the nba-mvp configuration and its layered loader.
//
// Configuration is built from defaults, then an optional YAML file, then environment
// variables prefixed NBA_MVP_. Nested keys use a double underscore in the environment,
// so NBA_MVP_ELIGIBILITY__MIN_GAMES overrides eligibility.min_games.
package config

import (
	"time"
)

// Config contains the full pipeline configuration
type Config struct {
	// DataDir is the root for raw pages, processed tables, and merged artifacts.
	DataDir string `koanf:"data_dir"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	Seasons     Seasons     `koanf:"seasons"`
	Schema      Schema      `koanf:"schema"`
	Eligibility Eligibility `koanf:"eligibility"`
	Franchise   Franchise   `koanf:"franchise"`
	Missing     Missing     `koanf:"missing"`
	Scrape      Scrape      `koanf:"scrape"`
	Cache       Cache       `koanf:"cache"`
	Export      Export      `koanf:"export"`
	Metrics     Metrics     `koanf:"metrics"`
	Model       Model       `koanf:"model"`
}

// Seasons is the inclusive range of seasons, named by the year the season ended.
type Seasons struct {
	From int `koanf:"from"`
	To   int `koanf:"to"`
}

// Years returns every season in the range
func (s Seasons) Years() []int {
	years := make([]int, 0, s.To-s.From+1)
	for y := s.From; y <= s.To; y++ {
		years = append(years, y)
	}
	return years
}

// Schema names the columns the pipeline reads from its input tables.
// Extended enables the advanced-stats table and its thresholds.
type Schema struct {
	Extended bool `koanf:"extended"`

	Season string `koanf:"season"`
	Player string `koanf:"player"`
	Team   string `koanf:"team"`

	TeamName    string `koanf:"team_name"`
	WinLossPct  string `koanf:"win_loss_pct"`
	GamesBehind string `koanf:"games_behind"`
	Playoffs    string `koanf:"playoffs"`

	VoteShare      string `koanf:"vote_share"`
	VoteRank       string `koanf:"vote_rank"`
	FirstPlace     string `koanf:"first_place"`
	ShareColumn    string `koanf:"share_column"`
	RankColumn     string `koanf:"rank_column"`
	FirstVotesName string `koanf:"first_votes_column"`

	Games             string `koanf:"games"`
	Points            string `koanf:"points"`
	Rebounds          string `koanf:"rebounds"`
	Assists           string `koanf:"assists"`
	FieldGoalAttempts string `koanf:"field_goal_attempts"`
	FieldGoalPct      string `koanf:"field_goal_pct"`
	Minutes           string `koanf:"minutes"`
	PER               string `koanf:"per"`
}

// Eligibility holds the historical statistical floors for MVP candidates
type Eligibility struct {
	RequirePlayoffs bool    `koanf:"require_playoffs"`
	MinGames        float64 `koanf:"min_games"`
	MinPoints       float64 `koanf:"min_points"`
	MinFGA          float64 `koanf:"min_fga"`
	MinRebounds     float64 `koanf:"min_rebounds"`
	MinAssists      float64 `koanf:"min_assists"`
	MinFGPct        float64 `koanf:"min_fg_pct"`
	MinMinutes      float64 `koanf:"min_minutes"`
	MinPER          float64 `koanf:"min_per"`

	// DropColumns are removed from the filtered output.
	DropColumns []string `koanf:"drop_columns"`
}

// Franchise configures team code reconciliation
type Franchise struct {
	// Aliases maps an era-specific code to the canonical code for the same franchise.
	Aliases map[string]string `koanf:"aliases"`

	// Swaps lists code pairs whose lexicographic rank disagrees with their team names.
	Swaps [][]string `koanf:"swaps"`

	// TradeCodes mark aggregate rows for players traded mid-season.
	TradeCodes []string `koanf:"trade_codes"`

	// UseLookup resolves names through the versioned franchise table before the heuristic.
	UseLookup bool `koanf:"use_lookup"`
}

// Missing configures the final null defaulting step
type Missing struct {
	Whitelist []string `koanf:"whitelist"`
	Default   string   `koanf:"default"`
}

// Scrape configures basketball-reference collection
type Scrape struct {
	BaseURL     string        `koanf:"base_url"`
	UserAgent   string        `koanf:"user_agent"`
	CrawlDelay  time.Duration `koanf:"crawl_delay"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxAttempts int           `koanf:"max_attempts"`
	UseBrowser  bool          `koanf:"use_browser"`
	Refetch     bool          `koanf:"refetch"`
}

// Cache configures the optional shared page cache
type Cache struct {
	RedisURL string        `koanf:"redis_url"`
	TTL      time.Duration `koanf:"ttl"`
}

// Export configures the Postgres sink
type Export struct {
	PostgresDSN string `koanf:"postgres_dsn"`
	Table       string `koanf:"table"`
}

// Metrics configures the prometheus textfile export
type Metrics struct {
	Textfile string `koanf:"textfile"`
}

// Model configures the regression stage
type Model struct {
	RidgeLambda float64  `koanf:"ridge_lambda"`
	Exclude     []string `koanf:"exclude"`
	TestSeasons []int    `koanf:"test_seasons"`
}

// New returns a Config populated with defaults
func New() *Config {
	return &Config{
		DataDir:  "data",
		LogLevel: "info",
		Seasons: Seasons{
			From: 1991,
			To:   2023,
		},
		Schema: Schema{
			Extended:          true,
			Season:            "year",
			Player:            "Player",
			Team:              "Tm",
			TeamName:          "team_name",
			WinLossPct:        "W/L%",
			GamesBehind:       "GB",
			Playoffs:          "playoffs",
			VoteShare:         "mvp_share",
			VoteRank:          "mvp_rank",
			FirstPlace:        "first_place_votes",
			ShareColumn:       "Share",
			RankColumn:        "Rank",
			FirstVotesName:    "First",
			Games:             "G",
			Points:            "PTS",
			Rebounds:          "TRB",
			Assists:           "AST",
			FieldGoalAttempts: "FGA",
			FieldGoalPct:      "FG%",
			Minutes:           "MP",
			PER:               "PER",
		},
		Eligibility: Eligibility{
			RequirePlayoffs: true,
			MinGames:        49,
			MinPoints:       13.8,
			MinFGA:          10.9,
			MinRebounds:     3.3,
			MinAssists:      1.3,
			MinFGPct:        0.378,
			MinMinutes:      30.4,
			MinPER:          18.1,
			DropColumns:     []string{"Rk", "playoffs", "team_name", "Awards"},
		},
		Franchise: Franchise{
			Aliases:    map[string]string{"CHO": "CHH"},
			Swaps:      [][]string{{"NOK", "NOP"}, {"WSB", "WAS"}},
			TradeCodes: []string{"TOT", "2TM", "3TM", "4TM", "5TM"},
			UseLookup:  true,
		},
		Missing: Missing{
			Whitelist: []string{"3P%", "mvp_share", "mvp_rank", "first_place_votes"},
			Default:   "0",
		},
		Scrape: Scrape{
			BaseURL:     "https://www.basketball-reference.com",
			UserAgent:   "nba-mvp/1.0 (github.com/pfrederiksen/nba-mvp)",
			CrawlDelay:  3 * time.Second,
			Timeout:     30 * time.Second,
			MaxAttempts: 4,
		},
		Cache: Cache{
			TTL: 30 * 24 * time.Hour,
		},
		Export: Export{
			Table: "player_data",
		},
		Model: Model{
			RidgeLambda: 1.0,
			Exclude:     []string{"mvp_share", "mvp_rank", "first_place_votes", "year", "player", "pos", "tm", "team"},
		},
	}
}
