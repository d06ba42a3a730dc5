package cli

import (
	"sort"

	"github.com/pfrederiksen/nba-mvp/internal/merge"
	"github.com/pfrederiksen/nba-mvp/internal/model"
)

// SortOrder represents the available sorting options for model folds
type SortOrder string

const (
	SortBySeason SortOrder = "season"
	SortByRMSE   SortOrder = "rmse"
	SortByR2     SortOrder = "r2"
)

// Valid reports whether o is a known order
func (o SortOrder) Valid() bool {
	switch o {
	case SortBySeason, SortByRMSE, SortByR2:
		return true
	}
	return false
}

// sortFolds sorts folds in place. RMSE ascending and R2 descending put the best
// seasons first; ties fall back to season.
func sortFolds(folds []model.Fold, order SortOrder) {
	switch order {
	case SortBySeason:
		sort.SliceStable(folds, func(i, j int) bool {
			return folds[i].Season < folds[j].Season
		})
	case SortByRMSE:
		sort.SliceStable(folds, func(i, j int) bool {
			if folds[i].RMSE != folds[j].RMSE {
				return folds[i].RMSE < folds[j].RMSE
			}
			return folds[i].Season < folds[j].Season
		})
	case SortByR2:
		sort.SliceStable(folds, func(i, j int) bool {
			if folds[i].R2 != folds[j].R2 {
				return folds[i].R2 > folds[j].R2
			}
			return folds[i].Season < folds[j].Season
		})
	}
}

// sortWarnings orders warnings by join, then key
func sortWarnings(warnings []merge.FanoutWarning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Join != warnings[j].Join {
			return warnings[i].Join < warnings[j].Join
		}
		return warnings[i].Key < warnings[j].Key
	})
}
