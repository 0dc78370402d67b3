package model

// TableSource records which parser produced a SchoolTable.
type TableSource string

const (
	// SourceJSON means the table came from a fenced JSON array.
	SourceJSON TableSource = "json"
	// SourceTable means the table came from pipe-delimited lines.
	SourceTable TableSource = "table"
)

// SchoolTable is the tabular view of the schools found by a crew.
// Every row has exactly len(Columns) cells.
type SchoolTable struct {
	Columns []string    `json:"columns"`
	Rows    [][]string  `json:"rows"`
	Source  TableSource `json:"source"`
	// Missing lists cells the source had no value for: an absent key,
	// a JSON null or a short pipe row. They read as "" in Rows.
	Missing []Cell `json:"missing,omitempty"`
}

// Cell addresses one cell of a SchoolTable.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// IsMissing reports whether the cell had no value in the source.
// An explicit empty string is a value.
func (t *SchoolTable) IsMissing(row, col int) bool {
	for _, c := range t.Missing {
		if c.Row == row && c.Col == col {
			return true
		}
	}
	return false
}

// Column returns the index of name, or -1.
func (t *SchoolTable) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// SchoolSummary holds the metrics shown above the school table.
type SchoolSummary struct {
	Total           int `json:"total"`
	WithFees        int `json:"with_fees"`
	UniqueLocations int `json:"unique_locations"`
}
