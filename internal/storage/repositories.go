package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Dialect selects placeholder syntax and dialect-specific expressions.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// PhoneSeparators are stripped from stored phone values before comparison.
// The order matters only for readability of the generated SQL.
var PhoneSeparators = []string{"+", "-", " ", "(", ")", "/", "."}

// PhoneNormExpr wraps col in one REPLACE per separator.
func PhoneNormExpr(col string) string {
	expr := col
	for _, sep := range PhoneSeparators {
		expr = fmt.Sprintf("REPLACE(%s, '%s', '')", expr, sep)
	}
	return expr
}

// RegistryConfig describes where records live.
type RegistryConfig struct {
	Table   string
	RowID   string
	Dialect Dialect
	Columns Columns
}

// DefaultRegistryConfig returns the CARMDI layout for a SQLite file.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Table:   "CARMDI",
		RowID:   "ROWID",
		Dialect: DialectSQLite,
		Columns: DefaultColumns(),
	}
}

// RegistryRepository runs read-only lookups against the registry table.
type RegistryRepository struct {
	db       DB
	cfg      RegistryConfig
	selectSQ string
}

// NewRegistryRepository creates a new registry repository.
func NewRegistryRepository(db DB, cfg RegistryConfig) *RegistryRepository {
	if cfg.Table == "" {
		cfg.Table = "CARMDI"
	}
	if cfg.Dialect == "" {
		cfg.Dialect = DialectSQLite
	}
	if cfg.RowID == "" {
		if cfg.Dialect == DialectPostgres {
			cfg.RowID = "id"
		} else {
			cfg.RowID = "ROWID"
		}
	}
	if cfg.Columns == (Columns{}) {
		cfg.Columns = DefaultColumns()
	}

	cols := append([]string{cfg.RowID}, cfg.Columns.ordered()...)
	return &RegistryRepository{
		db:       db,
		cfg:      cfg,
		selectSQ: fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), cfg.Table),
	}
}

// ByPlate returns records with the given region letter and plate number.
func (r *RegistryRepository) ByPlate(ctx context.Context, region string, number, limit int) ([]Record, error) {
	c := r.cfg.Columns
	query := fmt.Sprintf("%s WHERE UPPER(%s) = %s AND %s = %s LIMIT %s",
		r.selectSQ, c.Region, r.ph(1), r.numberExpr(), r.ph(2), r.ph(3))
	return r.query(ctx, "plate", query, strings.ToUpper(region), number, limit)
}

// ByNumber returns records with the given plate number in any region.
func (r *RegistryRepository) ByNumber(ctx context.Context, number, limit int) ([]Record, error) {
	query := fmt.Sprintf("%s WHERE %s = %s LIMIT %s",
		r.selectSQ, r.numberExpr(), r.ph(1), r.ph(2))
	return r.query(ctx, "number", query, number, limit)
}

// ByPhoneExact returns records whose separator-stripped phone equals one of variants.
func (r *RegistryRepository) ByPhoneExact(ctx context.Context, variants []string, limit int) ([]Record, error) {
	if len(variants) == 0 {
		return nil, nil
	}
	norm := PhoneNormExpr(r.cfg.Columns.Phone)
	args := make([]interface{}, 0, len(variants)+1)
	holders := make([]string, len(variants))
	for i, v := range variants {
		holders[i] = r.ph(i + 1)
		args = append(args, v)
	}
	args = append(args, limit)

	query := fmt.Sprintf("%s WHERE %s IN (%s) LIMIT %s",
		r.selectSQ, norm, strings.Join(holders, ", "), r.ph(len(variants)+1))
	return r.query(ctx, "phone_exact", query, args...)
}

// ByPhoneSuffix returns records whose separator-stripped phone ends with any
// of suffixes. All suffixes are OR-ed in a single statement.
func (r *RegistryRepository) ByPhoneSuffix(ctx context.Context, suffixes []string, limit int) ([]Record, error) {
	if len(suffixes) == 0 {
		return nil, nil
	}
	norm := PhoneNormExpr(r.cfg.Columns.Phone)
	args := make([]interface{}, 0, len(suffixes)+1)
	clauses := make([]string, len(suffixes))
	for i, s := range suffixes {
		clauses[i] = fmt.Sprintf("%s LIKE %s", norm, r.ph(i+1))
		args = append(args, "%"+s)
	}
	args = append(args, limit)

	query := fmt.Sprintf("%s WHERE %s LIMIT %s",
		r.selectSQ, strings.Join(clauses, " OR "), r.ph(len(suffixes)+1))
	return r.query(ctx, "phone_suffix", query, args...)
}

// Count returns the number of rows in the registry table.
func (r *RegistryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.cfg.Table)
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "count %s", r.cfg.Table)
	}
	return n, nil
}

func (r *RegistryRepository) numberExpr() string {
	if r.cfg.Dialect == DialectPostgres {
		return fmt.Sprintf("CAST(%s AS BIGINT)", r.cfg.Columns.Number)
	}
	return fmt.Sprintf("CAST(%s AS INTEGER)", r.cfg.Columns.Number)
}

// ph returns the n-th (1-based) placeholder for the dialect.
func (r *RegistryRepository) ph(n int) string {
	if r.cfg.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (r *RegistryRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "registry %s query", op)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "registry %s scan", op)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "registry %s rows", op)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec    Record
		fields [13]sql.NullString
	)
	dest := []interface{}{&rec.RowID}
	for i := range fields {
		dest = append(dest, &fields[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return Record{}, err
	}

	rec.Region = fields[0].String
	rec.Number = fields[1].String
	rec.Make = fields[2].String
	rec.Model = fields[3].String
	rec.Color = fields[4].String
	rec.ProductionDate = fields[5].String
	rec.RegistrationDate = fields[6].String
	rec.FirstName = fields[7].String
	rec.LastName = fields[8].String
	rec.Address = fields[9].String
	rec.Phone = fields[10].String
	rec.VIN = fields[11].String
	rec.EngineNumber = fields[12].String
	return rec, nil
}
