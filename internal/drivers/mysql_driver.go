package drivers

import (
	"database/sql"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/shepherrrd/hybrid/internal/query"
)

type MySQLDriver struct{}

func NewMySQLDriver() *MySQLDriver {
	return &MySQLDriver{}
}

func (m *MySQLDriver) Name() string {
	return "mysql"
}

func (m *MySQLDriver) Dialect() query.Dialect {
	return query.MySQL
}

// Dialector skips the server version query when there is no server to ask
func (m *MySQLDriver) Dialector(connectionString string, conn gorm.ConnPool, dryRun bool) gorm.Dialector {
	return mysql.New(mysql.Config{
		DSN:                       connectionString,
		Conn:                      conn,
		SkipInitializeWithVersion: conn != nil || dryRun,
	})
}

func (m *MySQLDriver) Configure(sqlDB *sql.DB) {
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
}

func (m *MySQLDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (m *MySQLDriver) SupportsTransactions() bool {
	return true
}
