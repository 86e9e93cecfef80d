package models

// FileObject describes an uploaded spreadsheet available via GET /excel/list.
type FileObject struct {
	FileName     string `json:"fileName"`
	URL          string `json:"url"`
	Size         int64  `json:"size,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
}

// CellValue is a loosely typed spreadsheet cell: string, float64, bool
// or nil, matching what the sheet decoder produces.
type CellValue = any

// SheetRow is one spreadsheet row keyed by column header.
type SheetRow map[string]CellValue

// CellUpdate records a single edited cell for POST /excel/update.
// Username identifies the row (the sheets carry one row per user),
// Field the column header, Value the new cell content.
type CellUpdate struct {
	Username string    `json:"username"`
	Field    string    `json:"field"`
	Value    CellValue `json:"value"`
}
