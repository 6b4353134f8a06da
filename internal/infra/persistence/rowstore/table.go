// Package rowstore maps penguin records onto a single relational table shared
// by the SQLite and Postgres backends. Missing measurements are stored as SQL
// NULL.
package rowstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"penguinboard/pkg/domain"
)

// TableName is the table holding one row per penguin.
const TableName = "penguins"

var columns = []string{
	"row_id", "species", "island",
	"bill_length_mm", "bill_depth_mm", "flipper_length_mm", "body_mass_g",
	"sex", "year",
}

// Placeholder renders the n-th (1-based) bind parameter for a dialect.
type Placeholder func(n int) string

// QuestionPlaceholder is the SQLite style.
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder is the Postgres style.
func DollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// Table reads and replaces the penguins table over an open database handle.
type Table struct {
	db          *sql.DB
	placeholder Placeholder
}

// New wraps db. A nil placeholder defaults to "?".
func New(db *sql.DB, placeholder Placeholder) *Table {
	if placeholder == nil {
		placeholder = QuestionPlaceholder
	}
	return &Table{db: db, placeholder: placeholder}
}

// DB exposes the underlying handle.
func (t *Table) DB() *sql.DB { return t.db }

// Close releases the database handle.
func (t *Table) Close() error { return t.db.Close() }

// EnsureSchema creates the penguins table when it does not exist.
func (t *Table) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
		row_id INTEGER PRIMARY KEY,
		species TEXT NOT NULL,
		island TEXT NOT NULL,
		bill_length_mm DOUBLE PRECISION,
		bill_depth_mm DOUBLE PRECISION,
		flipper_length_mm DOUBLE PRECISION,
		body_mass_g DOUBLE PRECISION,
		sex TEXT,
		year INTEGER
	)`
	if _, err := t.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure %s table: %w", TableName, err)
	}
	return nil
}

// Load returns every row ordered by row_id. An empty table yields ErrEmpty.
func (t *Table) Load(ctx context.Context) (domain.Dataset, error) {
	query := "SELECT " + strings.Join(columns, ", ") + " FROM " + TableName + " ORDER BY row_id"
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("select %s: %w", TableName, err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.Record
	for rows.Next() {
		var (
			rowID                           int64
			species, island                 string
			billLen, billDep, flipper, mass sql.NullFloat64
			sex                             sql.NullString
			year                            sql.NullInt64
		)
		if err := rows.Scan(&rowID, &species, &island, &billLen, &billDep, &flipper, &mass, &sex, &year); err != nil {
			return domain.Dataset{}, fmt.Errorf("scan %s: %w", TableName, err)
		}
		sp, err := domain.ParseSpecies(species)
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("row %d: %w", rowID, err)
		}
		records = append(records, domain.Record{
			Species:         sp,
			Island:          island,
			BillLengthMM:    fromNull(billLen),
			BillDepthMM:     fromNull(billDep),
			FlipperLengthMM: fromNull(flipper),
			BodyMassG:       fromNull(mass),
			Sex:             sex.String,
			Year:            int(year.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return domain.Dataset{}, fmt.Errorf("iterate %s: %w", TableName, err)
	}
	if len(records) == 0 {
		return domain.Dataset{}, ErrEmpty
	}
	return domain.NewDataset(records), nil
}

// Replace swaps the table contents for records inside one transaction and
// returns the number of rows written.
func (t *Table) Replace(ctx context.Context, records []domain.Record) (n int, retErr error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+TableName); err != nil {
		return 0, fmt.Errorf("clear %s: %w", TableName, err)
	}
	insert := t.insertStatement()
	for i, rec := range records {
		args := []any{
			int64(i + 1), string(rec.Species), rec.Island,
			toNull(rec.BillLengthMM), toNull(rec.BillDepthMM), toNull(rec.FlipperLengthMM), toNull(rec.BodyMassG),
			nullString(rec.Sex), nullYear(rec.Year),
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

func (t *Table) insertStatement() string {
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = t.placeholder(i + 1)
	}
	return "INSERT INTO " + TableName + " (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}

// ErrEmpty reports a table without rows.
var ErrEmpty = errors.New("rowstore: table is empty")

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return domain.Missing()
	}
	return v.Float64
}

func toNull(v float64) any {
	if domain.IsMissing(v) {
		return nil
	}
	return v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullYear(y int) any {
	if y == 0 {
		return nil
	}
	return int64(y)
}
