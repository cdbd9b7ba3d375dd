package drivers

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherrrd/hybrid/internal/query"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name     string
		want     string
		wantDial query.Dialect
	}{
		{"sqlite", "sqlite", query.SQLite},
		{"SQLite3", "sqlite", query.SQLite},
		{"postgres", "postgres", query.Postgres},
		{"pg", "postgres", query.Postgres},
		{"postgresql", "postgres", query.Postgres},
		{"mysql", "mysql", query.MySQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
			assert.Equal(t, tt.wantDial.Name(), d.Dialect().Name())
			assert.True(t, d.SupportsTransactions())
		})
	}

	_, err := ByName("oracle")
	assert.EqualError(t, err, "unsupported driver: oracle")

	for _, name := range Names() {
		_, err := ByName(name)
		assert.NoError(t, err, name)
	}
}

func TestRegexpMatch(t *testing.T) {
	tests := []struct {
		pattern any
		value   any
		want    bool
	}{
		{"^Gab", "Gabriel Smith", true},
		{"^gab", "Gabriel Smith", false},
		{"(?i)^gab", "Gabriel Smith", true},
		{"Smith$", []byte("Gabriel Smith"), true},
		{`^\d+$`, int64(42), true},
		{"x", nil, false},
		{nil, "x", false},
	}

	for _, tt := range tests {
		got, err := regexpMatch(tt.pattern, tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v REGEXP %v", tt.value, tt.pattern)
	}

	_, err := regexpMatch("(", "x")
	assert.ErrorContains(t, err, "invalid regular expression")
}

func TestSQLiteRegexpFunction(t *testing.T) {
	driver := NewSQLiteDriver()
	db, err := Connect(driver, ConnectOptions{
		ConnectionString: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	sqlDB, err := driver.GetSQLDB(db)
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	var matched bool
	require.NoError(t, db.Raw("SELECT ? REGEXP ?", "Lautaro Redbear", "Red").Scan(&matched).Error)
	assert.True(t, matched)

	require.NoError(t, db.Raw("SELECT ? REGEXP ?", "Lautaro Redbear", "^red").Scan(&matched).Error)
	assert.False(t, matched)
}

func TestConnectWithConn(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	for _, driver := range []DatabaseDriver{NewPostgreSQLDriver(), NewMySQLDriver()} {
		db, err := Connect(driver, ConnectOptions{Conn: mockDB, DryRun: true})
		require.NoError(t, err, driver.Name())
		assert.Equal(t, driver.Name(), db.Dialector.Name())
		assert.True(t, db.DryRun)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewGormLogger(t *testing.T) {
	for _, level := range []string{"info", "WARN", "error", "silent", "bogus"} {
		assert.NotNil(t, NewGormLogger(level), level)
	}
}
