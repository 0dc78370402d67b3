package schools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/schoolcrew/internal/model"
)

const (
	// NotAvailable marks unknown values in crew output.
	NotAvailable = "N/A"

	// ColumnFees and ColumnLocation are the columns the summary reads.
	ColumnFees     = "Fees"
	ColumnLocation = "Location"
)

var jsonArray = regexp.MustCompile("(?s)```json\\s*(\\[.*?\\])\\s*```")

// Extract parses the crew output into a table.
// A fenced ```json array of objects wins. Otherwise every line containing at
// least three pipes whose first cell is non-empty and does not start with "-"
// becomes a row, and the first such row is the header.
func Extract(output string) (*model.SchoolTable, error) {
	if m := jsonArray.FindStringSubmatch(output); m != nil {
		return fromJSON(m[1])
	}
	return fromPipes(output)
}

func fromJSON(s string) (*model.SchoolTable, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	table := &model.SchoolTable{Source: model.SourceJSON}
	index := make(map[string]int)
	records := make([]map[string]any, 0, len(items))

	for i, raw := range items {
		keys, err := objectKeys(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidJSON, i, err)
		}
		rec := make(map[string]any, len(keys))
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		if err := d.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidJSON, i, err)
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(table.Columns)
				table.Columns = append(table.Columns, k)
			}
		}
		records = append(records, rec)
	}

	table.Rows = make([][]string, 0, len(records))
	for r, rec := range records {
		row := make([]string, len(table.Columns))
		for c, name := range table.Columns {
			v, ok := rec[name]
			if !ok || v == nil {
				table.Missing = append(table.Missing, model.Cell{Row: r, Col: c})
				continue
			}
			row[c] = cell(v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object, got %s", bytes.TrimSpace(raw))
	}

	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := kt.(string)
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func fromPipes(output string) (*model.SchoolTable, error) {
	var lines [][]string
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] == "" || strings.HasPrefix(parts[0], "-") {
			continue
		}
		lines = append(lines, parts)
	}

	if len(lines) <= 1 {
		return nil, ErrNoStructuredData
	}

	table := &model.SchoolTable{
		Columns: lines[0],
		Rows:    make([][]string, 0, len(lines)-1),
		Source:  model.SourceTable,
	}
	for i, parts := range lines[1:] {
		if len(parts) > len(table.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d",
				ErrRaggedTable, i+1, len(parts), len(table.Columns))
		}
		row := make([]string, len(table.Columns))
		copy(row, parts)
		for c := len(parts); c < len(row); c++ {
			table.Missing = append(table.Missing, model.Cell{Row: i, Col: c})
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Summarize computes the metrics shown above the table. Missing cells are
// not counted; explicit empty strings are.
func Summarize(t *model.SchoolTable) model.SchoolSummary {
	s := model.SchoolSummary{Total: len(t.Rows)}

	if i := t.Column(ColumnFees); i >= 0 {
		for r, row := range t.Rows {
			if !t.IsMissing(r, i) && row[i] != NotAvailable {
				s.WithFees++
			}
		}
	}

	if i := t.Column(ColumnLocation); i >= 0 {
		seen := make(map[string]struct{})
		for r, row := range t.Rows {
			if !t.IsMissing(r, i) {
				seen[row[i]] = struct{}{}
			}
		}
		s.UniqueLocations = len(seen)
	}
	return s
}
