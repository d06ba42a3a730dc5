package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// ErrSingular is returned when the regularized normal equations cannot be solved
var ErrSingular = errors.New("singular design matrix")

// ErrMissingValue is returned when a feature cell to score is null
var ErrMissingValue = errors.New("null feature value")

// Ridge is a fitted ridge regression on standardized features
type Ridge struct {
	// Features names the columns in weight order. Set by Evaluate; Fit leaves it empty.
	Features  []string  `json:"features,omitempty"`
	Lambda    float64   `json:"lambda"`
	Mean      []float64 `json:"mean"`
	Std       []float64 `json:"std"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Fit standardizes each column of x with its population mean and standard deviation and
// solves (XᵀX + λI)w = Xᵀ(y - ȳ). Constant columns are left unscaled.
func Fit(x *mat.Dense, y []float64, lambda float64) (*Ridge, error) {
	n, p := x.Dims()
	if n == 0 || p == 0 {
		return nil, fmt.Errorf("fitting on %dx%d matrix", n, p)
	}
	if len(y) != n {
		return nil, fmt.Errorf("%d targets for %d rows", len(y), n)
	}
	if lambda < 0 {
		return nil, fmt.Errorf("negative ridge lambda %g", lambda)
	}

	r := &Ridge{
		Lambda: lambda,
		Mean:   make([]float64, p),
		Std:    make([]float64, p),
	}
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		r.Mean[j], r.Std[j] = stat.PopMeanStdDev(col, nil)
		if r.Std[j] == 0 || math.IsNaN(r.Std[j]) {
			r.Std[j] = 1
		}
	}

	z := r.standardize(x)
	r.Intercept = stat.Mean(y, nil)
	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - r.Intercept
	}

	var gram mat.Dense
	gram.Mul(z.T(), z)
	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(z.T(), mat.NewVecDense(n, centered))

	var w mat.VecDense
	if err := w.SolveVec(&gram, &rhs); err != nil {
		// An ill-conditioned but solvable system still yields a usable fit
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}
	r.Weights = make([]float64, p)
	for j := range r.Weights {
		r.Weights[j] = w.AtVec(j)
	}
	return r, nil
}

// Predict returns one prediction per row of x
func (r *Ridge) Predict(x *mat.Dense) []float64 {
	z := r.standardize(x)
	n, _ := z.Dims()

	var out mat.VecDense
	out.MulVec(z, mat.NewVecDense(len(r.Weights), r.Weights))

	preds := make([]float64, n)
	for i := range preds {
		preds[i] = out.AtVec(i) + r.Intercept
	}
	return preds
}

// PredictTable scores every row of t using the named feature columns
func (r *Ridge) PredictTable(t *table.Table) ([]float64, error) {
	if len(r.Weights) == 0 || len(r.Features) != len(r.Weights) {
		return nil, fmt.Errorf("model has %d feature names for %d weights", len(r.Features), len(r.Weights))
	}
	idx := make([]int, len(r.Features))
	for j, f := range r.Features {
		i, err := t.Index(f)
		if err != nil {
			return nil, err
		}
		idx[j] = i
	}

	x := mat.NewDense(max(t.Len(), 1), len(idx), nil)
	for i := range t.Rows {
		for j, c := range idx {
			v, ok, err := t.Float(i, c)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &table.ValueError{Table: t.Name, Column: t.Columns[c], Row: i, Err: ErrMissingValue}
			}
			x.Set(i, j, v)
		}
	}
	return r.Predict(x)[:t.Len()], nil
}

func (r *Ridge) standardize(x *mat.Dense) *mat.Dense {
	n, p := x.Dims()
	z := mat.NewDense(n, p, nil)
	z.Apply(func(i, j int, v float64) float64 {
		return (v - r.Mean[j]) / r.Std[j]
	}, x)
	return z
}

// RMSE is the root mean squared error
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// R2 is the coefficient of determination. A constant target scores 1 when predicted
// exactly and 0 otherwise.
func R2(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	mean := stat.Mean(actual, nil)
	var res, tot float64
	for i := range actual {
		d := actual[i] - predicted[i]
		res += d * d
		m := actual[i] - mean
		tot += m * m
	}
	if tot == 0 {
		if res == 0 {
			return 1
		}
		return 0
	}
	return 1 - res/tot
}
