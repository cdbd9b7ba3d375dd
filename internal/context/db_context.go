package context

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/shepherrrd/hybrid/internal/drivers"
	"github.com/shepherrrd/hybrid/internal/logging"
	"github.com/shepherrrd/hybrid/internal/models"
)

// DbContext owns the connection and the models registered against it.
type DbContext struct {
	db       *gorm.DB
	driver   drivers.DatabaseDriver
	entities map[reflect.Type]*models.EntityModel
	schemas  *sync.Map
	mu       sync.RWMutex
}

type DbContextOptions struct {
	ConnectionString string
	Driver           drivers.DatabaseDriver
	Conn             gorm.ConnPool // use an existing pool instead of ConnectionString
	LogLevel         string        // gorm log level: silent, error, warn, info
	DryRun           bool
}

func NewDbContext(options DbContextOptions) (*DbContext, error) {
	if options.Driver == nil {
		return nil, fmt.Errorf("no database driver configured")
	}

	db, err := drivers.Connect(options.Driver, drivers.ConnectOptions{
		ConnectionString: options.ConnectionString,
		Conn:             options.Conn,
		LogLevel:         options.LogLevel,
		DryRun:           options.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Debug("database connected", "driver", options.Driver.Name(), "dry_run", options.DryRun)

	return &DbContext{
		db:       db,
		driver:   options.Driver,
		entities: make(map[reflect.Type]*models.EntityModel),
		schemas:  &sync.Map{},
	}, nil
}

// RegisterEntity parses entity once and returns its model metadata
func (ctx *DbContext) RegisterEntity(entity interface{}) (*models.EntityModel, error) {
	entityType := reflect.TypeOf(entity)
	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if model, exists := ctx.entities[entityType]; exists {
		return model, nil
	}

	model, err := models.NewEntityModel(reflect.New(entityType).Interface(), ctx.schemas, ctx.db.NamingStrategy)
	if err != nil {
		return nil, err
	}
	ctx.entities[entityType] = model
	return model, nil
}

// GetEntityModel returns the model registered for entityType
func (ctx *DbContext) GetEntityModel(entityType reflect.Type) (*models.EntityModel, bool) {
	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}

	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	model, ok := ctx.entities[entityType]
	return model, ok
}

func (ctx *DbContext) GetDB() *gorm.DB {
	return ctx.db
}

func (ctx *DbContext) GetDriver() drivers.DatabaseDriver {
	return ctx.driver
}

func (ctx *DbContext) GetEntityModels() map[reflect.Type]*models.EntityModel {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	result := make(map[reflect.Type]*models.EntityModel)
	for k, v := range ctx.entities {
		result[k] = v
	}
	return result
}

// Transaction runs fn inside a database transaction
func (ctx *DbContext) Transaction(fn func(tx *gorm.DB) error) error {
	if !ctx.driver.SupportsTransactions() {
		return fn(ctx.db)
	}
	return ctx.db.Transaction(fn)
}

func (ctx *DbContext) Close() error {
	sqlDB, err := ctx.driver.GetSQLDB(ctx.db)
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureCreated creates the tables of every registered model that does not exist yet
func (ctx *DbContext) EnsureCreated() error {
	ctx.mu.RLock()
	entities := make([]*models.EntityModel, 0, len(ctx.entities))
	for _, entity := range ctx.entities {
		entities = append(entities, entity)
	}
	ctx.mu.RUnlock()

	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })

	values := make([]interface{}, len(entities))
	for i, entity := range entities {
		values[i] = reflect.New(entity.Type).Interface()
	}
	if len(values) == 0 {
		return nil
	}
	if err := ctx.db.AutoMigrate(values...); err != nil {
		logging.Warn("AutoMigrate failed", "error", err)
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
