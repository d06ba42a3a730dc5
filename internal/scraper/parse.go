package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// TableNotFoundError is returned when none of a kind's tables is on the page
type TableNotFoundError struct {
	Kind string
	IDs  []string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("%s: no table with id %s", e.Kind, strings.Join(e.IDs, ", "))
}

// Parse extracts the kind's table from a page
func Parse(kind Kind, html string) (*table.Table, error) {
	// Some tables are shipped commented out and inserted by script
	html = strings.ReplaceAll(html, "<!--", "")
	html = strings.ReplaceAll(html, "-->", "")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var tried []string
	for _, group := range kind.Tables {
		var parts []*table.Table
		for _, id := range group {
			tried = append(tried, id)
			sel := doc.Find("table#" + id).First()
			if sel.Length() == 0 {
				continue
			}
			parts = append(parts, parseTable(kind, sel))
		}
		if len(parts) == 0 {
			continue
		}
		out := parts[0].Concat(parts[1:]...)
		return out.DropUnnamed(), nil
	}

	return nil, &TableNotFoundError{Kind: kind.Name, IDs: tried}
}

func parseTable(kind Kind, sel *goquery.Selection) *table.Table {
	var header *goquery.Selection
	sel.Find("thead tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("over_header") {
			return
		}
		header = tr
	})

	var columns []string
	if header != nil {
		header.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			columns = append(columns, columnName(kind, cell))
		})
	}

	t := table.New(kind.Name, dedupe(columns))
	sel.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") || tr.HasClass("over_header") {
			return
		}
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, len(t.Columns))
		cells.Each(func(i int, cell *goquery.Selection) {
			if i < len(row) {
				row[i] = strings.TrimSpace(cell.Text())
			}
		})
		t.Append(row)
	})
	return t
}

func columnName(kind Kind, cell *goquery.Selection) string {
	if stat, ok := cell.Attr("data-stat"); ok {
		if name, ok := kind.StatNames[stat]; ok {
			return name
		}
	}
	return strings.TrimSpace(cell.Text())
}

// dedupe blanks repeated names so that only the first occurrence survives DropUnnamed
func dedupe(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, len(columns))
	for i, c := range columns {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out[i] = c
	}
	return out
}
