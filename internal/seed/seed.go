// Package seed loads fixture rows from semicolon-delimited files, one file per
// table named <table>.csv with a header row of column names. Empty cells are
// stored as NULL in nullable columns.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"ridesharing/internal/models"

	"github.com/gocarina/gocsv"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Load reads every fixture file found in dir, in foreign key order, inside a
// single transaction. It returns the number of rows inserted per table.
func Load(ctx context.Context, db *gorm.DB, dir string) (map[string]int, error) {
	counts := make(map[string]int)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range models.All() {
			s, err := schema.Parse(model, &sync.Map{}, tx.NamingStrategy)
			if err != nil {
				return fmt.Errorf("failed to parse schema of %T: %w", model, err)
			}

			path := filepath.Join(dir, s.Table+".csv")
			f, err := os.Open(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			rows, err := Read(f, s)
			f.Close()
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			n := rows.Elem().Len()
			if n == 0 {
				continue
			}

			if err := tx.Table(s.Table).CreateInBatches(rows.Interface(), 100).Error; err != nil {
				return fmt.Errorf("failed to insert %s rows: %w", s.Table, err)
			}
			if err := resetSequence(tx, s.Table); err != nil {
				return err
			}
			counts[s.Table] = n
			log.Printf("Seeded %d %s rows from %s", n, s.Table, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Read parses one fixture file into a pointer to a slice of s's model type.
// Columns are bound through the models' csv tags. Time cells may use any of
// timeLayouts and are read as UTC.
func Read(r io.Reader, s *schema.Schema) (reflect.Value, error) {
	out := reflect.New(reflect.SliceOf(s.ModelType))

	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return reflect.Value{}, err
	}
	if len(records) < 2 {
		return out, nil
	}

	header := records[0]
	timeColumns := make([]bool, len(header))
	for i, column := range header {
		column = strings.TrimSpace(column)
		header[i] = column
		f := s.LookUpField(column)
		if f == nil || csvColumn(f) != column {
			return reflect.Value{}, fmt.Errorf("unknown column %q in %s", column, s.Table)
		}
		timeColumns[i] = f.IndirectFieldType == timeType
	}

	for n, record := range records[1:] {
		for i, cell := range record {
			if !timeColumns[i] || cell == "" {
				continue
			}
			t, err := parseTime(cell)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("line %d, column %s: %w", n+2, header[i], err)
			}
			record[i] = t.Format(time.RFC3339Nano)
		}
	}

	if err := gocsv.UnmarshalDecoder(fixtureRows(records), out.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

var timeType = reflect.TypeOf(time.Time{})

// fixtureRows hands already parsed rows to gocsv.
type fixtureRows [][]string

func (r fixtureRows) GetCSVRows() ([][]string, error) {
	return r, nil
}

// csvColumn is the column a field binds to, or "" when it is not seeded.
func csvColumn(f *schema.Field) string {
	name, _, _ := strings.Cut(f.Tag.Get("csv"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

// resetSequence moves a Postgres identity sequence past explicitly seeded ids.
func resetSequence(tx *gorm.DB, table string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	sql := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s", table, table)
	if err := tx.Exec(sql).Error; err != nil {
		return fmt.Errorf("failed to reset %s id sequence: %w", table, err)
	}
	return nil
}
