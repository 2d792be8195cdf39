// Package storagetest builds in-memory registry databases for tests.
package storagetest

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/dan1650/plates-bot/internal/storage"
)

// OpenSQLite returns an empty in-memory CARMDI table. The pool is pinned to
// one connection so every query sees the same in-memory database.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	cols := storage.DefaultColumns().Names()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c + " TEXT"
	}
	_, err = db.Exec(fmt.Sprintf("CREATE TABLE CARMDI (%s)", strings.Join(defs, ", ")))
	require.NoError(t, err)
	return db
}

// Seed inserts records and returns them with RowID filled in.
func Seed(t testing.TB, db *sql.DB, records ...storage.Record) []storage.Record {
	t.Helper()

	cols := storage.DefaultColumns().Names()
	holders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt := fmt.Sprintf("INSERT INTO CARMDI (%s) VALUES (%s)", strings.Join(cols, ", "), holders)

	out := make([]storage.Record, 0, len(records))
	for _, r := range records {
		res, err := db.Exec(stmt,
			r.Region, r.Number, r.Make, r.Model, r.Color,
			r.ProductionDate, r.RegistrationDate, r.FirstName, r.LastName,
			r.Address, r.Phone, r.VIN, r.EngineNumber,
		)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		r.RowID = id
		out = append(out, r)
	}
	return out
}

// Plates returns n records sharing region and number with distinct phones.
func Plates(region, number string, n int) []storage.Record {
	out := make([]storage.Record, n)
	for i := range out {
		out[i] = storage.Record{
			Region: region,
			Number: number,
			Make:   "Toyota",
			Model:  "Corolla",
			Phone:  fmt.Sprintf("01%06d", i),
		}
	}
	return out
}
