package drivers

import (
	"database/sql"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shepherrrd/hybrid/internal/query"
)

type PostgreSQLDriver struct{}

func NewPostgreSQLDriver() *PostgreSQLDriver {
	return &PostgreSQLDriver{}
}

func (p *PostgreSQLDriver) Name() string {
	return "postgres"
}

func (p *PostgreSQLDriver) Dialect() query.Dialect {
	return query.Postgres
}

func (p *PostgreSQLDriver) Dialector(connectionString string, conn gorm.ConnPool, _ bool) gorm.Dialector {
	return postgres.New(postgres.Config{
		DSN:  connectionString,
		Conn: conn,
	})
}

func (p *PostgreSQLDriver) Configure(sqlDB *sql.DB) {
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
}

func (p *PostgreSQLDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (p *PostgreSQLDriver) SupportsTransactions() bool {
	return true
}
