package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// Artifact names a table persisted under the data directory
type Artifact struct {
	Name string
	Path string // relative to the data directory
}

// Known artifacts
var (
	MVPVotings      = Artifact{Name: "mvp_votings", Path: "mvp_votings/processed/mvps.csv"}
	PlayerStats     = Artifact{Name: "player_stats", Path: "player_stats/processed/player_stats.csv"}
	TeamRecords     = Artifact{Name: "team_records", Path: "team_records/processed/team_records.csv"}
	AdvancedStats   = Artifact{Name: "advanced_stats", Path: "advanced_stats/processed/advanced_stats.csv"}
	UncleanedMerged = Artifact{Name: "uncleaned_merged", Path: "merged/uncleaned_merged.csv"}
	PlayerData      = Artifact{Name: "player_data", Path: "merged/player_data.csv"}
	ModelMetrics    = Artifact{Name: "model_metrics", Path: "models/metrics.csv"}
	Predictions     = Artifact{Name: "predictions", Path: "models/predictions.csv"}
	RidgeModel      = Artifact{Name: "ridge_model", Path: "models/ridge.json"}
)

// Storage handles persistence of pipeline artifacts
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// Path returns the absolute location of an artifact
func (s *Storage) Path(a Artifact) string {
	return filepath.Join(s.dataDir, filepath.FromSlash(a.Path))
}

// Exists reports whether an artifact has been written
func (s *Storage) Exists(a Artifact) bool {
	_, err := os.Stat(s.Path(a))
	return err == nil
}

// LoadTable reads an artifact as a table.
// A missing file yields a *MissingInputError.
func (s *Storage) LoadTable(a Artifact) (*table.Table, error) {
	path := s.Path(a)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingInputError{Artifact: a.Name, Path: path}
		}
		return nil, fmt.Errorf("opening %s: %w", a.Name, err)
	}
	defer f.Close()

	t, err := table.Read(a.Name, f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", a.Name, err)
	}
	return t, nil
}

// SaveTable writes a table to an artifact atomically
func (s *Storage) SaveTable(a Artifact, t *table.Table) error {
	var sb strings.Builder
	if err := t.Write(&sb); err != nil {
		return fmt.Errorf("encoding %s: %w", a.Name, err)
	}
	return writeAtomic(s.Path(a), []byte(sb.String()))
}

// SaveJSON writes v as indented JSON to an artifact atomically
func (s *Storage) SaveJSON(a Artifact, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", a.Name, err)
	}
	return writeAtomic(s.Path(a), data)
}

// LoadJSON decodes an artifact into v.
// A missing file yields a *MissingInputError.
func (s *Storage) LoadJSON(a Artifact, v interface{}) error {
	path := s.Path(a)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &MissingInputError{Artifact: a.Name, Path: path}
		}
		return fmt.Errorf("reading %s: %w", a.Name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", a.Name, err)
	}
	return nil
}

// RawPagePath returns the location of a downloaded page
func (s *Storage) RawPagePath(kind string, year int) string {
	return filepath.Join(s.dataDir, kind, "raw", fmt.Sprintf("%s_%d.html", kind, year))
}

// SaveRawPage stores downloaded HTML for one season
func (s *Storage) SaveRawPage(kind string, year int, html string) error {
	return writeAtomic(s.RawPagePath(kind, year), []byte(html))
}

// LoadRawPage returns a previously downloaded page. ok is false when none exists.
func (s *Storage) LoadRawPage(kind string, year int) (html string, ok bool, err error) {
	data, err := os.ReadFile(s.RawPagePath(kind, year))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading raw page: %w", err)
	}
	return string(data), true, nil
}

// writeAtomic writes data next to path and renames it into place
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
