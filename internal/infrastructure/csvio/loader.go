package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

// SourceOptions describes how a tabular source is laid out
type SourceOptions struct {
	NameColumn string
	SkipRows   int               // lines dropped before the header
	Encoding   string            // utf-8 (default, BOM tolerated) or cp949
	Aliases    map[string]string // source label -> canonical attribute key
}

// numberPattern accepts "100", "1,200.5", "100g", "12.3 mg"
var numberPattern = regexp.MustCompile(`^([-+]?\d+(?:\.\d+)?)\s*[a-zA-Z%µμ]*$`)

// ParseNumber extracts the numeric value of a cell
func ParseNumber(cell string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, false
	}
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// table is a decoded source: header plus data rows
type table struct {
	header  []string
	rows    [][]string
	nameCol int
}

func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "cp949", "euc-kr":
		return transform.NewReader(r, korean.EUCKR.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %q", domain.ErrInvalidRequest, encoding)
	}
}

func readTable(r io.Reader, opts SourceOptions) (*table, error) {
	src, err := decode(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %q (source shorter than skip_rows)", domain.ErrMissingColumn, opts.NameColumn)
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %q (no header row)", domain.ErrMissingColumn, opts.NameColumn)
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &table{header: header, nameCol: -1}
	want := strings.TrimSpace(opts.NameColumn)
	for i, h := range header {
		if h == want {
			t.nameCol = i
			break
		}
	}
	if t.nameCol < 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrMissingColumn, want)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *table) name(row []string) string {
	if t.nameCol >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[t.nameCol])
}

// LoadCatalog reads reference records. Rows keep their source order,
// blank names included, so catalog indexes line up with source rows.
func LoadCatalog(r io.Reader, opts SourceOptions) (*domain.Catalog, error) {
	log := logger.Named("csvio")

	t, err := readTable(r, opts)
	if err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	res := newResolver(opts.Aliases)
	columns := make(map[int]string)
	seen := make(map[string]bool)
	for i, h := range t.header {
		if i == t.nameCol {
			continue
		}
		if key, ok := res.canonical(h); ok && !seen[key] {
			columns[i] = key
			seen[key] = true
		}
	}

	var missing []string
	for _, key := range domain.DefaultAttributes {
		if !seen[key] {
			missing = append(missing, AttributeLabel(key))
		}
	}
	if len(missing) > 0 {
		log.Warn().Strs("columns", missing).Msg("catalog lacks attribute columns, ignored")
	}

	records := make([]domain.ReferenceRecord, len(t.rows))
	for i, row := range t.rows {
		rec := domain.ReferenceRecord{Name: t.name(row)}
		for col, key := range columns {
			if col >= len(row) {
				continue
			}
			if v, ok := ParseNumber(row[col]); ok {
				if rec.Nutrients == nil {
					rec.Nutrients = make(domain.Nutrients, len(columns))
				}
				rec.Nutrients[key] = v
			}
		}
		records[i] = rec
	}

	log.Info().Int("records", len(records)).Int("attributes", len(columns)).Msg("catalog loaded")
	return domain.NewCatalog(records), nil
}

// LoadCatalogFile opens path and loads it as a catalog
func LoadCatalogFile(path string, opts SourceOptions) (*domain.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f, opts)
}

// QueryTable is a raw product table. Rows holds only the rows that carry a
// product name, in source order, so row i belongs to query ordinal i.
type QueryTable struct {
	Header []string
	Rows   [][]string
	names  []string
}

// Names returns the trimmed product name of every row
func (q *QueryTable) Names() []string {
	return q.names
}

// Len returns the number of rows
func (q *QueryTable) Len() int {
	return len(q.Rows)
}

// Filter returns a table with the rows whose name satisfies keep
func (q *QueryTable) Filter(keep func(name string) bool) *QueryTable {
	out := &QueryTable{Header: q.Header}
	for i, name := range q.names {
		if keep(name) {
			out.Rows = append(out.Rows, q.Rows[i])
			out.names = append(out.names, name)
		}
	}
	return out
}

// LoadQueries reads the raw product table. Names are trimmed and rows with
// a blank name are dropped; every other column is kept for the result file.
func LoadQueries(r io.Reader, opts SourceOptions) (*QueryTable, error) {
	t, err := readTable(r, opts)
	if err != nil {
		return nil, err
	}

	q := &QueryTable{Header: t.header}
	for _, row := range t.rows {
		if name := t.name(row); name != "" {
			q.Rows = append(q.Rows, row)
			q.names = append(q.names, name)
		}
	}

	logger.Named("csvio").Info().Int("queries", q.Len()).Int("dropped", len(t.rows)-q.Len()).Msg("queries loaded")
	return q, nil
}

// LoadQueriesFile opens path and loads it as a query table
func LoadQueriesFile(path string, opts SourceOptions) (*QueryTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queries: %w", err)
	}
	defer f.Close()
	return LoadQueries(f, opts)
}
