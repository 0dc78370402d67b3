package schools

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/schoolcrew/internal/model"
)

// WriteCSV writes the table with a header row.
func WriteCSV(w io.Writer, t *model.SchoolTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// pathParts neutralizes separators and parent references in file names.
var pathParts = strings.NewReplacer("/", "_", `\`, "_", "..", "_")

// CSVFileName returns the export file name for a search.
// Auto-detected locations are written as "current_location".
func CSVFileName(req model.SearchRequest) string {
	location := "current_location"
	if !req.UsesCurrentLocation() {
		location = strings.ReplaceAll(pathParts.Replace(req.Location), " ", "_")
	}
	return fmt.Sprintf("school_search_%s_%s_%s.csv",
		location, pathParts.Replace(req.Grade), pathParts.Replace(req.Curriculum))
}

// WriteMarkdown writes the summary and the table as a Markdown document.
func WriteMarkdown(w io.Writer, req model.SearchRequest, t *model.SchoolTable) error {
	md := markdown.NewMarkdown(w)

	md.H2("School Search Results")
	md.PlainText("")
	md.PlainTextf("%s schools in %s for %s.", req.Curriculum, req.Location, req.Grade)
	md.PlainText("")

	s := Summarize(t)
	md.Table(markdown.TableSet{
		Header: []string{"Total Schools Found", "Schools with Fee Info", "Different Locations"},
		Rows: [][]string{{
			fmt.Sprint(s.Total),
			fmt.Sprint(s.WithFees),
			fmt.Sprint(s.UniqueLocations),
		}},
	})
	md.PlainText("")

	if len(t.Columns) > 0 {
		rows := make([][]string, len(t.Rows))
		for i, row := range t.Rows {
			rows[i] = make([]string, len(row))
			for j, c := range row {
				rows[i][j] = strings.ReplaceAll(c, "|", "\\|")
			}
		}
		md.Table(markdown.TableSet{Header: t.Columns, Rows: rows})
		md.PlainText("")
	}
	return md.Build()
}
