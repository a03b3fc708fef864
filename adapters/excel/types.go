package excel

// ExcelData is a raw table as read from disk: a header row and string cells
type ExcelData struct {
	Headers []string   // Column headers, de-duplicated
	Rows    [][]string // Data rows, padded to len(Headers)
}
