package scraper

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/storage"
)

// Kind describes one family of season pages
type Kind struct {
	// Name is used for raw page paths and metrics labels.
	Name     string
	Artifact storage.Artifact
	// Path is a format string taking the season year.
	Path string
	// Tables lists groups of table ids. The first group with at least one table on the
	// page is used, and all of its tables are stacked.
	Tables [][]string
	// Browser marks pages that need script rendering.
	Browser bool
	// StatNames renames columns by data-stat attribute.
	StatNames map[string]string
}

// teamStats names the team abbreviation column the same way across layouts
var teamStats = map[string]string{
	"team_id":        "Tm",
	"team_name_abbr": "Tm",
}

// Known page kinds
var (
	MVPVotings = Kind{
		Name:      "mvp_votings",
		Artifact:  storage.MVPVotings,
		Path:      "/awards/awards_%d.html",
		Tables:    [][]string{{"mvp"}},
		StatNames: teamStats,
	}
	PlayerStats = Kind{
		Name:      "player_stats",
		Artifact:  storage.PlayerStats,
		Path:      "/leagues/NBA_%d_per_game.html",
		Tables:    [][]string{{"per_game_stats"}},
		Browser:   true,
		StatNames: teamStats,
	}
	AdvancedStats = Kind{
		Name:      "advanced_stats",
		Artifact:  storage.AdvancedStats,
		Path:      "/leagues/NBA_%d_advanced.html",
		Tables:    [][]string{{"advanced_stats"}},
		StatNames: teamStats,
	}
	TeamRecords = Kind{
		Name:     "team_records",
		Artifact: storage.TeamRecords,
		Path:     "/leagues/NBA_%d_standings.html",
		Tables: [][]string{
			{"confs_standings_E", "confs_standings_W"},
			{"divs_standings_E", "divs_standings_W"},
		},
		StatNames: map[string]string{"team_name": "team_name"},
	}
)

// Kinds returns every known kind in scrape order
func Kinds() []Kind {
	return []Kind{MVPVotings, PlayerStats, AdvancedStats, TeamRecords}
}

// KindByName looks up a kind
func KindByName(name string) (Kind, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(k.Name, name) {
			return k, nil
		}
	}
	return Kind{}, fmt.Errorf("unknown page kind: %q", name)
}

// URL returns the page URL for a season
func (k Kind) URL(baseURL string, year int) string {
	return strings.TrimRight(baseURL, "/") + fmt.Sprintf(k.Path, year)
}
