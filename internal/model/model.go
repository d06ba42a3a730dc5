package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// Name labels the metrics rows
const Name = "Ridge"

// RaceSize is the number of candidates shown per race
const RaceSize = 3

// Options configures Evaluate
type Options struct {
	Target string
	Season string
	Player string
	// Exclude lists columns that are never features, compared case-insensitively.
	Exclude []string
	Lambda  float64
	// TestSeasons limits the held-out seasons. Empty means every season.
	TestSeasons []int
}

// Candidate is one player in a race
type Candidate struct {
	Player string  `json:"player"`
	Share  float64 `json:"share"`
}

// Fold is the result for one held-out season
type Fold struct {
	Season    int         `json:"season"`
	TrainRows int         `json:"train_rows"`
	TestRows  int         `json:"test_rows"`
	RMSE      float64     `json:"rmse"`
	R2        float64     `json:"r2"`
	Actual    []Candidate `json:"actual"`
	Predicted []Candidate `json:"predicted"`
}

// Prediction is one held-out row
type Prediction struct {
	Season    int
	Player    string
	Actual    float64
	Predicted float64
}

// Result summarizes an evaluation
type Result struct {
	Features    []string     `json:"features"`
	Folds       []Fold       `json:"folds"`
	Predictions []Prediction `json:"-"`
	// Model is fitted on every season, for scoring seasons not yet voted on.
	Model *Ridge `json:"-"`
	// RMSE and R2 are averaged over folds.
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// Features returns the columns used as regressors: every column that is neither the
// target, the season, the player, nor excluded, and whose values all parse as numbers.
func Features(t *table.Table, opts Options) []string {
	skip := map[string]bool{
		strings.ToLower(opts.Target): true,
		strings.ToLower(opts.Season): true,
		strings.ToLower(opts.Player): true,
	}
	for _, c := range opts.Exclude {
		skip[strings.ToLower(c)] = true
	}

	var out []string
	for j, c := range t.Columns {
		if c == "" || skip[strings.ToLower(c)] {
			continue
		}
		if numeric(t, j) {
			out = append(out, c)
		}
	}
	return out
}

func numeric(t *table.Table, col int) bool {
	if t.Len() == 0 {
		return false
	}
	for i := range t.Rows {
		if _, err := strconv.ParseFloat(strings.TrimSpace(t.Value(i, col)), 64); err != nil {
			return false
		}
	}
	return true
}

// Evaluate runs leave-one-season-out ridge regression over t, then fits Result.Model
// on every row
func Evaluate(t *table.Table, opts Options) (*Result, error) {
	if err := t.Require(opts.Target, opts.Season, opts.Player); err != nil {
		return nil, err
	}
	features := Features(t, opts)
	if len(features) == 0 {
		return nil, fmt.Errorf("%s: no numeric feature columns", t.Name)
	}

	seasonIdx, _ := t.Index(opts.Season)
	targetIdx, _ := t.Index(opts.Target)
	playerIdx, _ := t.Index(opts.Player)
	featIdx := make([]int, len(features))
	for k, f := range features {
		featIdx[k], _ = t.Index(f)
	}

	seasons := make([]int, t.Len())
	targets := make([]float64, t.Len())
	present := make(map[int]bool)
	for i := range t.Rows {
		s, err := strconv.Atoi(strings.TrimSpace(t.Value(i, seasonIdx)))
		if err != nil {
			return nil, &table.ValueError{Table: t.Name, Column: opts.Season, Row: i, Value: t.Value(i, seasonIdx), Err: err}
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(t.Value(i, targetIdx)), 64)
		if err != nil {
			return nil, &table.ValueError{Table: t.Name, Column: opts.Target, Row: i, Value: t.Value(i, targetIdx), Err: err}
		}
		seasons[i], targets[i] = s, y
		present[s] = true
	}
	if len(present) < 2 {
		return nil, fmt.Errorf("%s: need at least two seasons, have %d", t.Name, len(present))
	}

	test := opts.TestSeasons
	if len(test) == 0 {
		for s := range present {
			test = append(test, s)
		}
		sort.Ints(test)
	}

	res := &Result{Features: features}
	for _, season := range test {
		if !present[season] {
			return nil, fmt.Errorf("%s: no rows for test season %d", t.Name, season)
		}

		var trainRows, testRows []int
		for i, s := range seasons {
			if s == season {
				testRows = append(testRows, i)
			} else {
				trainRows = append(trainRows, i)
			}
		}

		xTrain, yTrain := design(t, trainRows, featIdx, targets)
		xTest, yTest := design(t, testRows, featIdx, targets)

		r, err := Fit(xTrain, yTrain, opts.Lambda)
		if err != nil {
			return nil, fmt.Errorf("season %d: %w", season, err)
		}
		preds := r.Predict(xTest)

		names := make([]string, len(testRows))
		for k, i := range testRows {
			names[k] = t.Value(i, playerIdx)
			res.Predictions = append(res.Predictions, Prediction{
				Season:    season,
				Player:    names[k],
				Actual:    yTest[k],
				Predicted: preds[k],
			})
		}

		res.Folds = append(res.Folds, Fold{
			Season:    season,
			TrainRows: len(trainRows),
			TestRows:  len(testRows),
			RMSE:      RMSE(yTest, preds),
			R2:        R2(yTest, preds),
			Actual:    race(names, yTest),
			Predicted: race(names, preds),
		})
	}

	for _, f := range res.Folds {
		res.RMSE += f.RMSE
		res.R2 += f.R2
	}
	res.RMSE /= float64(len(res.Folds))
	res.R2 /= float64(len(res.Folds))

	all := make([]int, t.Len())
	for i := range all {
		all[i] = i
	}
	x, y := design(t, all, featIdx, targets)
	final, err := Fit(x, y, opts.Lambda)
	if err != nil {
		return nil, fmt.Errorf("final model: %w", err)
	}
	final.Features = features
	res.Model = final
	return res, nil
}

// design builds the feature matrix for rows. Values were validated by Features.
func design(t *table.Table, rows, featIdx []int, targets []float64) (*mat.Dense, []float64) {
	x := mat.NewDense(len(rows), len(featIdx), nil)
	y := make([]float64, len(rows))
	for r, i := range rows {
		for c, j := range featIdx {
			v, _ := strconv.ParseFloat(strings.TrimSpace(t.Value(i, j)), 64)
			x.Set(r, c, v)
		}
		y[r] = targets[i]
	}
	return x, y
}

// race returns the top RaceSize players by share, ties kept in row order
func race(players []string, shares []float64) []Candidate {
	out := make([]Candidate, len(players))
	for i := range players {
		out[i] = Candidate{Player: players[i], Share: shares[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Share > out[b].Share })
	if len(out) > RaceSize {
		out = out[:RaceSize]
	}
	return out
}

// MetricsTable returns one row per fold
func (r *Result) MetricsTable(name string) *table.Table {
	t := table.New(name, []string{"Model", "Year", "RMSE", "R2"})
	for _, f := range r.Folds {
		t.Append([]string{Name, strconv.Itoa(f.Season), formatFloat(f.RMSE), formatFloat(f.R2)})
	}
	return t
}

// PredictionsTable returns one row per held-out player season
func (r *Result) PredictionsTable(name string) *table.Table {
	t := table.New(name, []string{"year", "player", "mvp_share", "predicted_share"})
	for _, p := range r.Predictions {
		t.Append([]string{strconv.Itoa(p.Season), p.Player, formatFloat(p.Actual), formatFloat(p.Predicted)})
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
