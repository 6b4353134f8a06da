package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"penguinboard/pkg/domain"
)

// ErrNoRecords is returned when a source parses cleanly but holds no rows.
var ErrNoRecords = errors.New("source: dataset has no records")

// Column names follow the palmerpenguins CSV header.
const (
	colSpecies    = "species"
	colIsland     = "island"
	colBillLength = "bill_length_mm"
	colBillDepth  = "bill_depth_mm"
	colFlipper    = "flipper_length_mm"
	colBodyMass   = "body_mass_g"
	colSex        = "sex"
	colYear       = "year"
	missingMarker = "NA"
)

var requiredColumns = []string{colSpecies, colIsland, colBillLength, colBillDepth, colBodyMass}

// ParseCSV reads a header-mapped penguins CSV. Columns are matched by name so
// extra columns (a leading row index, for example) are ignored. "NA" and
// empty cells are missing values; any other unparsable number is an error
// naming its line.
func ParseCSV(r io.Reader) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRecords
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", col)
		}
	}

	var records []domain.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func parseRow(row []string, index map[string]int) (domain.Record, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		v := strings.TrimSpace(row[i])
		if v == missingMarker {
			return ""
		}
		return v
	}
	species, err := domain.ParseSpecies(cell(colSpecies))
	if err != nil {
		return domain.Record{}, err
	}
	rec := domain.Record{Species: species, Island: cell(colIsland), Sex: cell(colSex)}
	measures := []struct {
		col string
		dst *float64
	}{
		{colBillLength, &rec.BillLengthMM},
		{colBillDepth, &rec.BillDepthMM},
		{colFlipper, &rec.FlipperLengthMM},
		{colBodyMass, &rec.BodyMassG},
	}
	for _, m := range measures {
		v, err := parseMeasure(cell(m.col))
		if err != nil {
			return domain.Record{}, fmt.Errorf("column %s: %w", m.col, err)
		}
		*m.dst = v
	}
	if y := cell(colYear); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return domain.Record{}, fmt.Errorf("column %s: invalid year %q", colYear, y)
		}
		rec.Year = year
	}
	return rec, nil
}

func parseMeasure(v string) (float64, error) {
	if v == "" {
		return domain.Missing(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", v)
	}
	return f, nil
}

// WriteCSV encodes records under the palmerpenguins header, writing missing
// values as NA so ParseCSV reads them back unchanged.
func WriteCSV(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	header := []string{colSpecies, colIsland, colBillLength, colBillDepth, colFlipper, colBodyMass, colSex, colYear}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, rec := range records {
		year := missingMarker
		if rec.Year != 0 {
			year = strconv.Itoa(rec.Year)
		}
		row := []string{
			string(rec.Species),
			textOrMissing(rec.Island),
			formatMeasure(rec.BillLengthMM),
			formatMeasure(rec.BillDepthMM),
			formatMeasure(rec.FlipperLengthMM),
			formatMeasure(rec.BodyMassG),
			textOrMissing(rec.Sex),
			year,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatMeasure(v float64) string {
	if domain.IsMissing(v) {
		return missingMarker
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func textOrMissing(v string) string {
	if v == "" {
		return missingMarker
	}
	return v
}
