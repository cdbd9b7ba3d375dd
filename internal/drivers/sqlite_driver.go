package drivers

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shepherrrd/hybrid/internal/query"
)

// SQLiteDriverName is the database/sql driver registered with the REGEXP function
const SQLiteDriverName = "sqlite3_hybrid"

var (
	registerSQLite sync.Once
	patterns       sync.Map // pattern -> *regexp.Regexp
)

// registerSQLiteDriver installs a mattn driver whose connections provide regexp(pattern, value),
// the function SQLite calls for "value REGEXP pattern".
func registerSQLiteDriver() {
	registerSQLite.Do(func() {
		sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("regexp", regexpMatch, true)
			},
		})
	})
}

func regexpMatch(pattern, value interface{}) (bool, error) {
	if pattern == nil || value == nil {
		return false, nil
	}
	expr := fmt.Sprint(pattern)
	re, ok := patterns.Load(expr)
	if !ok {
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return false, fmt.Errorf("invalid regular expression %q: %w", expr, err)
		}
		re, _ = patterns.LoadOrStore(expr, compiled)
	}
	switch v := value.(type) {
	case []byte:
		return re.(*regexp.Regexp).Match(v), nil
	default:
		return re.(*regexp.Regexp).MatchString(fmt.Sprint(v)), nil
	}
}

type SQLiteDriver struct{}

func NewSQLiteDriver() *SQLiteDriver {
	registerSQLiteDriver()
	return &SQLiteDriver{}
}

func (s *SQLiteDriver) Name() string {
	return "sqlite"
}

func (s *SQLiteDriver) Dialect() query.Dialect {
	return query.SQLite
}

func (s *SQLiteDriver) Dialector(connectionString string, conn gorm.ConnPool, _ bool) gorm.Dialector {
	return &sqlite.Dialector{DriverName: SQLiteDriverName, DSN: connectionString, Conn: conn}
}

// Configure keeps a single connection so in-memory databases survive between queries
func (s *SQLiteDriver) Configure(sqlDB *sql.DB) {
	sqlDB.SetMaxOpenConns(1)
}

func (s *SQLiteDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (s *SQLiteDriver) SupportsTransactions() bool {
	return true
}
