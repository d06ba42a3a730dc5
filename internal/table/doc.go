// Package table provides the delimited-text tables passed between pipeline stages.
//
// A Table is an ordered header plus rows of string cells. The empty cell (or a literal
// NaN written by an upstream dataframe export) is treated as null. Every transformation
// returns a new Table, so a stage never mutates the table it was handed. Column lookups
// report schema drift with a SchemaError naming the missing column.
package table
