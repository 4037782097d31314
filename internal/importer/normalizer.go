package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"product-importer-service/internal/models"
)

// Required CSV columns. Column names are matched exactly; extra columns are
// ignored and the optional description/price columns are recognized by name.
var requiredColumns = []string{"sku", "name"}

// newCSVReader wraps a CSV stream. Rows with a field count different from the
// header are tolerated; missing cells read as empty.
func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	return reader
}

// readHeader reads the header row and strips a UTF-8 byte-order marker from
// the first cell (common in spreadsheet-exported CSVs).
func readHeader(reader *csv.Reader) ([]string, error) {
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	return headers, nil
}

// validateHeader checks that every required column is present. A missing
// column is a job-level failure, not a per-row error.
func validateHeader(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("CSV must contain columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// rowToMap maps one record onto the header columns
func rowToMap(headers []string, record []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(record) {
			row[h] = record[i]
		}
	}
	return row
}

// normalizeRow turns one raw row into a candidate record. A row whose trimmed
// SKU is empty is rejected (counted as an error, never fatal). Empty-after-trim
// description and price are carried as absent rather than empty strings, and
// imported rows are always active.
func normalizeRow(row map[string]string) (models.CandidateRecord, bool) {
	sku := strings.TrimSpace(row["sku"])
	if sku == "" {
		return models.CandidateRecord{}, false
	}

	return models.CandidateRecord{
		SKU:         sku,
		Name:        strings.TrimSpace(row["name"]),
		Description: optionalString(strings.TrimSpace(row["description"])),
		Price:       optionalString(strings.TrimSpace(row["price"])),
		Active:      true,
	}, true
}

// optionalString returns nil for empty strings, pointer otherwise
func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// countDataRows counts the rows after the header in one full pass.
// This fixes the progress denominator before processing begins.
func countDataRows(r io.Reader) (int, error) {
	reader := newCSVReader(r)

	if _, err := reader.Read(); err == io.EOF {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	total := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to scan CSV rows: %w", err)
		}
		total++
	}
	return total, nil
}
