// Package merge joins the per-game, advanced, standings and voting tables into one
// wide table with a row per player, team and season.
//
// Joins are left joins that never add or remove left rows. When the right side holds
// several rows for a key, the row whose team matches the left row wins, otherwise the
// first in input order, and a FanoutWarning is recorded for the key.
package merge
