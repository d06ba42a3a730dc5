// Package model scores how well season statistics predict MVP vote share.
//
// Evaluate runs leave-one-season-out cross validation: for each test season a ridge
// regression is fit on every other season, the held-out season is predicted, and RMSE,
// R2 and the top of the actual and predicted races are reported. Features are every
// numeric column that is not excluded, so the model follows whatever stat columns the
// cleaned table carries.
package model
