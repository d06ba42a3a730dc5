package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/nba-mvp/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteOutput writes stage reports in the specified format
func WriteOutput(w io.Writer, reports []*pipeline.Report, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, reports)
	case FormatText:
		return writeText(w, reports, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs a single report as an object and several as an array
func writeJSON(w io.Writer, reports []*pipeline.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if len(reports) == 1 {
		return encoder.Encode(reports[0])
	}
	return encoder.Encode(reports)
}

// writeText outputs reports as human-readable text
func writeText(w io.Writer, reports []*pipeline.Report, verbose bool) error {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s: %d -> %d rows in %s\n", r.Stage, r.RowsIn, r.RowsOut, r.Duration.Round(time.Millisecond))
		if r.Output != "" {
			fmt.Fprintf(w, "  Output: %s\n", r.Output)
		}

		switch r.Stage {
		case pipeline.StageScrape:
			writePages(w, r)
		case pipeline.StageMerge:
			writeMerge(w, r, verbose)
		case pipeline.StageClean:
			writeClean(w, r, verbose)
		case pipeline.StageTrain:
			writeTrain(w, r, verbose)
		}

		if verbose {
			fmt.Fprintf(w, "  Run ID: %s\n", r.RunID)
		}
	}
	return nil
}

func writePages(w io.Writer, r *pipeline.Report) {
	for _, p := range r.Pages {
		sources := make([]string, 0, len(p.Sources))
		for src, n := range p.Sources {
			sources = append(sources, fmt.Sprintf("%s=%d", src, n))
		}
		sort.Strings(sources)
		fmt.Fprintf(w, "  %-16s %d seasons, %d rows (%s)\n", p.Kind, p.Seasons, p.Rows, strings.Join(sources, ", "))
	}
}

func writeMerge(w io.Writer, r *pipeline.Report, verbose bool) {
	fmt.Fprintf(w, "  Teams reconciled: %d\n", r.Teams)
	fmt.Fprintf(w, "  Trade rows dropped: %d\n", r.TradeRowsDropped)
	if len(r.Warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "  Fan-out warnings: %d\n", len(r.Warnings))
	if verbose {
		warnings := append(r.Warnings[:0:0], r.Warnings...)
		sortWarnings(warnings)
		for _, wr := range warnings {
			fmt.Fprintf(w, "    %s\n", wr.String())
		}
	}
}

func writeClean(w io.Writer, r *pipeline.Report, verbose bool) {
	fmt.Fprintf(w, "  Filter: %s\n", r.Filter)
	total := 0
	for _, n := range r.Filled {
		total += n
	}
	fmt.Fprintf(w, "  Nulls filled: %d\n", total)
	if verbose && total > 0 {
		cols := make([]string, 0, len(r.Filled))
		for c := range r.Filled {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			fmt.Fprintf(w, "    %-20s %d\n", c, r.Filled[c])
		}
	}
}

func writeTrain(w io.Writer, r *pipeline.Report, verbose bool) {
	fmt.Fprintf(w, "  Seasons: %d  mean RMSE: %.4f  mean R2: %.4f\n", r.Seasons, r.RMSE, r.R2)
	for _, f := range r.Folds {
		fmt.Fprintf(w, "  %d  RMSE %.4f  R2 %.4f", f.Season, f.RMSE, f.R2)
		if len(f.Actual) > 0 && len(f.Predicted) > 0 {
			fmt.Fprintf(w, "  MVP %s, predicted %s", f.Actual[0].Player, f.Predicted[0].Player)
		}
		fmt.Fprintln(w)

		if verbose {
			for i := 0; i < len(f.Actual) || i < len(f.Predicted); i++ {
				var actual, predicted string
				if i < len(f.Actual) {
					actual = fmt.Sprintf("%s (%.3f)", f.Actual[i].Player, f.Actual[i].Share)
				}
				if i < len(f.Predicted) {
					predicted = fmt.Sprintf("%s (%.3f)", f.Predicted[i].Player, f.Predicted[i].Share)
				}
				fmt.Fprintf(w, "      %d. %-32s %s\n", i+1, actual, predicted)
			}
		}
	}
}
