package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wowoyong/voca-app/pkg/models"
)

// ItemWriter stores imported items
type ItemWriter interface {
	UpsertItem(ctx context.Context, item *models.Item) (created bool, err error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath         string          // Path to the Excel or CSV file
	DefaultKind      models.ItemKind // Kind used when the kind column is empty
	KindColumn       string          // Column with the item kind
	TermColumn       string          // Column with the word, expression or grammar point
	ReadingColumn    string          // Column with the pronunciation or kana reading
	MeaningColumn    string          // Column with the translation
	ExampleColumn    string          // Column with an example sentence
	DifficultyColumn string          // Column with the difficulty
	SheetName        string          // Name of the sheet to import
	StartRow         int             // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		DefaultKind:      models.KindWord,
		KindColumn:       "A",
		TermColumn:       "B",
		ReadingColumn:    "C",
		MeaningColumn:    "D",
		ExampleColumn:    "E",
		DifficultyColumn: "F",
		SheetName:        "Sheet1",
		StartRow:         2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int      `json:"totalProcessed"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Errors         []string `json:"errors"`
}

// Importer loads catalog items from spreadsheets
type Importer struct {
	store ItemWriter
}

// NewImporter creates an importer writing to store
func NewImporter(store ItemWriter) *Importer {
	return &Importer{store: store}
}

// Import imports items from an Excel or CSV file
func (im *Importer) Import(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	if !config.DefaultKind.Valid() {
		return nil, fmt.Errorf("invalid default kind %q", config.DefaultKind)
	}

	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}

		result.TotalProcessed++
		if err := im.processRow(ctx, row, config, result); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

// readExcel returns every row of the sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns every record of the file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processRow validates one row and stores it
func (im *Importer) processRow(ctx context.Context, row []string, config ImportConfig, result *ImportResult) error {
	item := models.Item{
		Kind:       models.ItemKind(strings.ToLower(cell(row, config.KindColumn))),
		Term:       cleanTerm(cell(row, config.TermColumn)),
		Reading:    cell(row, config.ReadingColumn),
		Meaning:    cell(row, config.MeaningColumn),
		Example:    cell(row, config.ExampleColumn),
		Difficulty: parseIntOrDefault(cell(row, config.DifficultyColumn), 1, 5, 3),
	}
	if item.Kind == "" {
		item.Kind = config.DefaultKind
	}

	if !item.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", item.Kind)
	}
	if item.Term == "" {
		return fmt.Errorf("term cannot be empty")
	}
	if item.Meaning == "" {
		return fmt.Errorf("meaning cannot be empty")
	}

	created, err := im.store.UpsertItem(ctx, &item)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

// cell returns the trimmed value of column, or "" when the column is unset
// or past the end of the row
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// cleanTerm removes inflection notes in brackets, "go (went, gone)" -> "go"
func cleanTerm(term string) string {
	if i := strings.Index(term, "("); i > 0 {
		return strings.TrimSpace(term[:i])
	}
	return strings.TrimSpace(term)
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Helper function to parse integer within a range
func parseIntInRange(s string, min, max int) (int, error) {
	var val int
	if _, err := fmt.Sscanf(s, "%d", &val); err != nil {
		return min, err
	}
	if val < min {
		return min, nil
	}
	if val > max {
		return max, nil
	}
	return val, nil
}

// Helper function to parse integer with default value
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	if val, err := parseIntInRange(s, min, max); err == nil {
		return val
	}
	return defaultVal
}
