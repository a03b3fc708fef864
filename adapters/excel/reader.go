package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"surveylens/adapters/datareadiness/coercer"
	"surveylens/domain/dataset"
	"surveylens/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	coercer  *coercer.TypeCoercer
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(config ExcelConfig) *DataReader {
	return &DataReader{
		filePath: config.FilePath,
		fileType: FileTypeFor(config.FilePath),
		sheet:    config.Sheet,
		coercer:  coercer.NewTypeCoercer(config.CoercionConfig),
		logger:   internal.DefaultLogger.WithComponent("DataReader"),
	}
}

// FileTypeFor maps a file name to "csv" or "xlsx"
func FileTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".tsv":
		return "csv"
	}
	return "xlsx"
}

// ReadDataset reads the configured file into a typed dataset
func (r *DataReader) ReadDataset() (*dataset.Dataset, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return r.BuildDataset(data)
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", strings.ToUpper(r.fileType), err)
	}
	defer f.Close()

	return r.ReadSource(f, r.fileType)
}

// ReadSource reads an already opened source, e.g. an uploaded file
func (r *DataReader) ReadSource(src io.Reader, fileType string) (*ExcelData, error) {
	switch fileType {
	case "csv":
		return r.readCSVData(src)
	case "xlsx":
		return r.readExcelData(src)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

// readExcelData reads raw cell values from the configured sheet (first sheet by default)
func (r *DataReader) readExcelData(src io.Reader) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	r.logger.Debug("Sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("Excel file must have at least a header row")
	}

	return r.processRows(rows, "xlsx")
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData(src io.Reader) (*ExcelData, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.Comma = sniffDelimiter(raw)

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("CSV file must have at least a header row")
	}

	return r.processRows(rows, "csv")
}

// processRows splits the header row off and pads ragged data rows
func (r *DataReader) processRows(rows [][]string, fileType string) (*ExcelData, error) {
	headers := dedupeHeaders(rows[0])

	dataRows := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		cells := make([]string, len(headers))
		for j := 0; j < len(headers) && j < len(row); j++ {
			cells[j] = row[j]
		}
		dataRows = append(dataRows, cells)
	}

	r.logger.Info("%s file processed (%d columns, %d rows)", strings.ToUpper(fileType), len(headers), len(dataRows))

	return &ExcelData{Headers: headers, Rows: dataRows}, nil
}

// Load reads an uploaded file into a dataset, picking the format from its name
func (r *DataReader) Load(name string, src io.Reader) (*dataset.Dataset, error) {
	data, err := r.ReadSource(src, FileTypeFor(name))
	if err != nil {
		return nil, err
	}
	return r.BuildDataset(data)
}

// BuildDataset infers each column's storage type and assembles the dataset
func (r *DataReader) BuildDataset(data *ExcelData) (*dataset.Dataset, error) {
	columns := make([]*dataset.Column, len(data.Headers))
	for j, header := range data.Headers {
		values := make([]string, len(data.Rows))
		for i, row := range data.Rows {
			values[i] = row[j]
		}
		columns[j] = r.coercer.BuildColumn(header, values)
		r.logger.Trace("Column %q inferred as %s", header, columns[j].Type)
	}
	return dataset.New(columns...)
}

// dedupeHeaders trims names, names blank headers by position and suffixes repeats
// as name.1, name.2 so every column stays addressable.
func dedupeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	next := make(map[string]int)
	for i, h := range raw {
		base := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if base == "" {
			base = "Unnamed: " + strconv.Itoa(i)
		}
		name := base
		for used[name] {
			next[base]++
			name = base + "." + strconv.Itoa(next[base])
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks the most frequent of , ; and tab in the header line
func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte(","))
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
