// Package storage provides file-based persistence for pipeline artifacts.
//
// The storage package manages the data directory shared by every stage: raw HTML pages
// downloaded by the scraper (<kind>/raw/<kind>_<year>.html), the processed input tables
// (<kind>/processed/*.csv), and the merged artifacts (merged/uncleaned_merged.csv and
// merged/player_data.csv). Writes go to a temporary file that is renamed into place, so a
// failed stage never leaves a partial artifact behind.
package storage
