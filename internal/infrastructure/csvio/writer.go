package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

// auditAttributes is how many attribute columns the audit log carries
const auditAttributes = 4

const utf8BOM = "\ufeff"

// AvailableAttributes returns the default attributes that at least one
// catalog record carries, in default order
func AvailableAttributes(catalog *domain.Catalog) []string {
	present := make(map[string]bool)
	for i := 0; i < catalog.Len(); i++ {
		rec, _ := catalog.Record(i)
		for key := range rec.Nutrients {
			present[key] = true
		}
	}

	attrs := make([]string, 0, len(domain.DefaultAttributes))
	for _, key := range domain.DefaultAttributes {
		if present[key] {
			attrs = append(attrs, key)
		}
	}
	return attrs
}

// WriteResults writes the enriched product table: every source column of
// queries followed by matched name, top score, reason and the attributes in
// attrs. An added column already present in the source replaces it in place.
// With a nil table the product name stands in for the source columns.
// Unmatched rows leave attributes empty.
func WriteResults(w io.Writer, queries *QueryTable, records []domain.MatchRecord, attrs []string) error {
	if queries == nil {
		return writeTable(w, records, attrs)
	}

	header := append([]string(nil), queries.Header...)
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	added := matchHeader(attrs)
	slots := make([]int, len(added))
	for i, name := range added {
		if p, ok := pos[name]; ok {
			slots[i] = p
			continue
		}
		slots[i] = len(header)
		header = append(header, name)
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		if rec.Ordinal < 0 || rec.Ordinal >= queries.Len() {
			return fmt.Errorf("%w: record %d has no source row", domain.ErrInvalidRequest, rec.Ordinal)
		}
		row := make([]string, len(header))
		copy(row, queries.Rows[rec.Ordinal])
		for i, cell := range matchCells(rec, attrs) {
			row[slots[i]] = cell
		}
		rows = append(rows, row)
	}
	return writeCSV(w, header, rows)
}

// WriteAuditLog writes the decision columns plus the first few attributes
func WriteAuditLog(w io.Writer, records []domain.MatchRecord, attrs []string) error {
	if len(attrs) > auditAttributes {
		attrs = attrs[:auditAttributes]
	}
	return writeTable(w, records, attrs)
}

// WriteResultsFile creates path and writes the results table into it
func WriteResultsFile(path string, queries *QueryTable, records []domain.MatchRecord, attrs []string) error {
	return writeFile(path, func(w io.Writer) error { return WriteResults(w, queries, records, attrs) })
}

// WriteAuditLogFile creates path and writes the audit table into it
func WriteAuditLogFile(path string, records []domain.MatchRecord, attrs []string) error {
	return writeFile(path, func(w io.Writer) error { return WriteAuditLog(w, records, attrs) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeTable writes the product name and decision columns of every record
func writeTable(w io.Writer, records []domain.MatchRecord, attrs []string) error {
	header := append([]string{ColumnQuery}, matchHeader(attrs)...)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, append([]string{rec.Query}, matchCells(rec, attrs)...))
	}
	return writeCSV(w, header, rows)
}

func matchHeader(attrs []string) []string {
	header := []string{ColumnMatchedName, ColumnTopScore, ColumnReason}
	for _, key := range attrs {
		header = append(header, AttributeLabel(key))
	}
	return header
}

func matchCells(rec domain.MatchRecord, attrs []string) []string {
	cells := []string{
		rec.MatchedName,
		strconv.FormatFloat(rec.TopScore, 'f', 4, 64),
		rec.Reason,
	}
	for _, key := range attrs {
		cells = append(cells, formatValue(rec, key))
	}
	return cells
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func formatValue(rec domain.MatchRecord, key string) string {
	if !rec.Matched() {
		return ""
	}
	v, ok := rec.Nutrients.Get(key)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
