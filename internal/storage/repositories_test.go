package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan1650/plates-bot/internal/storage"
	"github.com/dan1650/plates-bot/internal/storage/storagetest"
)

func TestRegistryRepository_ByPlate(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	seeded := storagetest.Seed(t, db,
		storage.Record{Region: "B", Number: "1000", Make: "Toyota", FirstName: "Rami", LastName: "Haddad"},
		storage.Record{Region: "b", Number: "01000", Make: "Kia"},
		storage.Record{Region: "M", Number: "1000", Make: "BMW"},
		storage.Record{Region: "B", Number: "1001", Make: "Fiat"},
	)
	repo := storage.NewRegistryRepository(db, storage.DefaultRegistryConfig())
	ctx := context.Background()

	recs, err := repo.ByPlate(ctx, "b", 1000, 50)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, seeded[0], recs[0])
	assert.Equal(t, "01000", recs[1].Number, "number is returned as stored")

	recs, err = repo.ByPlate(ctx, "B", 1000, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = repo.ByPlate(ctx, "Z", 1000, 50)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRegistryRepository_ByNumber(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	storagetest.Seed(t, db,
		storage.Record{Region: "B", Number: "2259"},
		storage.Record{Region: "M", Number: "2259"},
		storage.Record{Region: "G", Number: "002259"},
		storage.Record{Region: "G", Number: "2260"},
	)
	repo := storage.NewRegistryRepository(db, storage.DefaultRegistryConfig())

	recs, err := repo.ByNumber(context.Background(), 2259, 100)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	regions := []string{recs[0].Region, recs[1].Region, recs[2].Region}
	assert.ElementsMatch(t, []string{"B", "M", "G"}, regions)
}

func TestRegistryRepository_ByPhoneExact(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	storagetest.Seed(t, db,
		storage.Record{Region: "B", Number: "1", Phone: "+961 3 681-764"},
		storage.Record{Region: "B", Number: "2", Phone: "(03) 681.764"},
		storage.Record{Region: "B", Number: "3", Phone: "03/681765"},
	)
	repo := storage.NewRegistryRepository(db, storage.DefaultRegistryConfig())
	ctx := context.Background()

	recs, err := repo.ByPhoneExact(ctx, []string{"9613681764"}, 50)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].Number)

	recs, err = repo.ByPhoneExact(ctx, []string{"9613681764", "03681764"}, 50)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = repo.ByPhoneExact(ctx, nil, 50)
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestRegistryRepository_ByPhoneSuffix(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	storagetest.Seed(t, db,
		storage.Record{Region: "B", Number: "1", Phone: "+961 3 681-764"},
		storage.Record{Region: "B", Number: "2", Phone: "01 681764"},
		storage.Record{Region: "B", Number: "3", Phone: "03/681765"},
	)
	repo := storage.NewRegistryRepository(db, storage.DefaultRegistryConfig())
	ctx := context.Background()

	recs, err := repo.ByPhoneSuffix(ctx, []string{"3681764", "681764"}, 50)
	require.NoError(t, err)
	assert.Len(t, recs, 2, "either suffix may match")

	recs, err = repo.ByPhoneSuffix(ctx, []string{"3681764"}, 50)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = repo.ByPhoneSuffix(ctx, []string{"3681764", "681764"}, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRegistryRepository_NullColumns(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	_, err := db.Exec("INSERT INTO CARMDI (CodeDesc, ActualNB) VALUES ('B', '77')")
	require.NoError(t, err)

	repo := storage.NewRegistryRepository(db, storage.DefaultRegistryConfig())
	recs, err := repo.ByNumber(context.Background(), 77, 100)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "B77", recs[0].Plate())
	assert.Empty(t, recs[0].Phone)
	assert.Empty(t, recs[0].OwnerName())
}

func TestRegistryRepository_Count(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	storagetest.Seed(t, db, storagetest.Plates("B", "1", 3)...)

	n, err := storage.NewRegistryRepository(db, storage.DefaultRegistryConfig()).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

var pgColumns = []string{
	"id", "CodeDesc", "ActualNB", "MarqueDesc", "TypeDesc", "CouleurDesc", "PRODDATE",
	"PreMiseCirc", "Prenom", "Nom", "Addresse", "TelProp", "Chassis", "Moteur",
}

func newPostgresRepo(t *testing.T) (*storage.RegistryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := storage.DefaultRegistryConfig()
	cfg.Dialect = storage.DialectPostgres
	cfg.RowID = ""
	return storage.NewRegistryRepository(db, cfg), mock
}

func TestRegistryRepository_PostgresPlaceholders(t *testing.T) {
	repo, mock := newPostgresRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, CodeDesc, ActualNB")+".*"+
		regexp.QuoteMeta("WHERE UPPER(CodeDesc) = $1 AND CAST(ActualNB AS BIGINT) = $2 LIMIT $3")).
		WithArgs("B", 1000, 50).
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow(7, "B", "1000", "Toyota", "Yaris", "Red", "2015", "2016", "Rami", "Haddad", "Beirut", "03681764", "VIN1", "ENG1"))

	recs, err := repo.ByPlate(ctx, "b", 1000, 50)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(7), recs[0].RowID)
	assert.Equal(t, "Rami Haddad", recs[0].OwnerName())

	mock.ExpectQuery(regexp.QuoteMeta("IN ($1, $2) LIMIT $3")).
		WithArgs("9613681764", "3681764", 50).
		WillReturnRows(sqlmock.NewRows(pgColumns))

	recs, err = repo.ByPhoneExact(ctx, []string{"9613681764", "3681764"}, 50)
	require.NoError(t, err)
	assert.Empty(t, recs)

	mock.ExpectQuery(regexp.QuoteMeta("LIKE $1 OR ")+".*"+regexp.QuoteMeta("LIKE $2 LIMIT $3")).
		WithArgs("%3681764", "%681764", 50).
		WillReturnRows(sqlmock.NewRows(pgColumns))

	_, err = repo.ByPhoneSuffix(ctx, []string{"3681764", "681764"}, 50)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryRepository_QueryError(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	_, err := repo.ByNumber(context.Background(), 2259, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry number query")
	assert.Contains(t, err.Error(), "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPhoneNormExpr(t *testing.T) {
	expr := storage.PhoneNormExpr("TelProp")
	for _, sep := range storage.PhoneSeparators {
		assert.Contains(t, expr, "'"+sep+"'")
	}
	assert.Contains(t, expr, "TelProp")
}
