package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Options controls how the dataset file is read.
type Options struct {
	// Delimiter for CSV. If 0, chosen from the file extension (',' or '\t').
	Delimiter rune
	// Sheet selects the XLSX sheet by name; empty means the first sheet.
	Sheet string
	// DecimalSeparator for numbers. If 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, strip common separators other than the decimal
}

// DefaultOptions reads US-formatted numbers ("1,250.50").
func DefaultOptions() Options {
	return Options{DecimalSeparator: '.', ThousandsSeparator: ','}
}

// LoadStats describes what the cleaning pass kept and dropped.
type LoadStats struct {
	Name           string          `json:"name"`
	RawRows        int             `json:"raw_rows"`
	Kept           int             `json:"kept"`
	DroppedCluster int             `json:"dropped_cluster"`
	DroppedCoords  int             `json:"dropped_coords"`
	Seasons        []CategoryCount `json:"seasons"`
}

// Dropped is the total number of rows removed by cleaning.
func (s *LoadStats) Dropped() int { return s.DroppedCluster + s.DroppedCoords }

// ErrMissingColumn reports that a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// Load reads a CSV/TSV or XLSX dataset and returns only fully valid rows.
func Load(path string, opt Options) (*Table, *LoadStats, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited file from disk.
func LoadCSV(path string, opt Options) (*Table, *LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	t, st, err := ReadCSV(f, opt)
	if err != nil {
		return nil, nil, err
	}
	st.Name = filepath.Base(path)
	return t, st, nil
}

// ReadCSV parses delimited data with a header row.
func ReadCSV(src io.Reader, opt Options) (*Table, *LoadStats, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		r.Comma = opt.Delimiter
	}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("read header: empty file")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	c, err := newCleaner(header, opt)
	if err != nil {
		return nil, nil, err
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", c.stats.RawRows+1, err)
		}
		c.add(rec)
	}
	return c.finish()
}

// LoadXLSX reads the first (or named) sheet of a workbook. The first row is the header.
func LoadXLSX(path string, opt Options) (*Table, *LoadStats, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("open workbook: no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("read header: sheet %q is empty", sheet)
	}
	c, err := newCleaner(rows[0], opt)
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range rows[1:] {
		c.add(rec)
	}
	t, st, err := c.finish()
	if err != nil {
		return nil, nil, err
	}
	st.Name = filepath.Base(path)
	return t, st, nil
}

// cleaner maps header positions to record fields and applies the row filters.
type cleaner struct {
	opt     Options
	idx     map[Column]int
	records []Record
	stats   LoadStats
}

func newCleaner(header []string, opt Options) (*cleaner, error) {
	byKey := map[string]Column{}
	for _, col := range []Column{ColProjID, ColRent, ColAge, ColSeason, ColCompetition, ColOccupancy, ColTSNE1, ColTSNE2, ColCluster} {
		byKey[headerKey(string(col))] = col
	}
	c := &cleaner{opt: opt, idx: map[Column]int{}}
	for i, h := range header {
		name, _ := splitUnits(strings.TrimPrefix(h, "\ufeff"))
		if col, ok := byKey[headerKey(name)]; ok {
			if _, dup := c.idx[col]; !dup {
				c.idx[col] = i
			}
		}
	}
	for _, col := range []Column{ColCluster, ColTSNE1, ColTSNE2} {
		if _, ok := c.idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return c, nil
}

func (c *cleaner) field(rec []string, col Column) string {
	i, ok := c.idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (c *cleaner) number(rec []string, col Column) float64 {
	if x, ok := parseNumeric(c.field(rec, col), c.opt); ok {
		return x
	}
	return math.NaN()
}

func (c *cleaner) add(rec []string) {
	c.stats.RawRows++
	cluster, ok := parseCluster(c.field(rec, ColCluster))
	if !ok {
		c.stats.DroppedCluster++
		return
	}
	x, okx := parseStrict(c.field(rec, ColTSNE1))
	y, oky := parseStrict(c.field(rec, ColTSNE2))
	if !okx || !oky {
		c.stats.DroppedCoords++
		return
	}
	c.records = append(c.records, Record{
		ProjID:               c.field(rec, ColProjID),
		RentAtDelivery:       c.number(rec, ColRent),
		AgeAtDelivery:        c.number(rec, ColAge),
		SeasonOfDelivery:     c.field(rec, ColSeason),
		SubmarketCompetition: c.number(rec, ColCompetition),
		AvgOcc3Mo:            c.number(rec, ColOccupancy),
		TSNE1:                x,
		TSNE2:                y,
		Cluster:              cluster,
	})
}

func (c *cleaner) finish() (*Table, *LoadStats, error) {
	t := &Table{records: c.records}
	c.stats.Kept = t.Len()
	c.stats.Seasons = t.SeasonCounts()
	st := c.stats
	return t, &st, nil
}

// parseCluster accepts non-negative integral values such as "3" or "3.0".
func parseCluster(s string) (int, bool) {
	x, ok := parseStrict(s)
	if !ok || x < 0 || x != math.Trunc(x) || x > math.MaxInt32 {
		return 0, false
	}
	return int(x), true
}

// parseStrict parses a plain finite number. Units, currency and grouping
// separators are rejected.
func parseStrict(s string) (float64, bool) {
	x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r == '_' || r == ' ' || r == '-' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseNumeric parses a finite number, tolerating percent signs and locale separators.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "$", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // e.g., RentAtDelivery ($)
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // e.g., AgeAtDelivery [years]
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[2])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
