package drivers

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shepherrrd/hybrid/internal/query"
)

// DatabaseDriver opens an engine through gorm and names the lookup dialect that renders for it.
type DatabaseDriver interface {
	Name() string
	Dialect() query.Dialect
	// Dialector builds the gorm dialector. conn, when set, replaces opening connectionString.
	Dialector(connectionString string, conn gorm.ConnPool, dryRun bool) gorm.Dialector
	// Configure tunes the connection pool after opening
	Configure(sqlDB *sql.DB)
	GetSQLDB(db *gorm.DB) (*sql.DB, error)
	SupportsTransactions() bool
}

// ConnectOptions control how Connect opens a database
type ConnectOptions struct {
	ConnectionString string
	Conn             gorm.ConnPool // existing pool, e.g. a *sql.DB
	LogLevel         string        // silent, error, warn, info
	DryRun           bool          // build SQL without executing it
}

// Connect opens a gorm database with the driver
func Connect(driver DatabaseDriver, opts ConnectOptions) (*gorm.DB, error) {
	db, err := gorm.Open(driver.Dialector(opts.ConnectionString, opts.Conn, opts.DryRun), &gorm.Config{
		Logger:               NewGormLogger(opts.LogLevel),
		DryRun:               opts.DryRun,
		DisableAutomaticPing: opts.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect with %s driver: %w", driver.Name(), err)
	}

	if !opts.DryRun && opts.Conn == nil {
		sqlDB, err := driver.GetSQLDB(db)
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		driver.Configure(sqlDB)
	}
	return db, nil
}

// ByName returns the driver for a name such as "sqlite", "postgres" or "mysql"
func ByName(name string) (DatabaseDriver, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pg":
		return NewPostgreSQLDriver(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDriver(), nil
	case "mysql":
		return NewMySQLDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", name)
	}
}

// Names lists the canonical driver names
func Names() []string {
	return []string{"sqlite", "postgres", "mysql"}
}
