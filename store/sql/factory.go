package sqlstore

import (
	"database/sql"
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-service-market/core"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// RepositoryFactory builds and caches the market's persistence-backed stores
// against a single bun connection.
type RepositoryFactory struct {
	db *bun.DB

	eventStore    *MarketEventStore
	snapshotStore *BindingSnapshotStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.eventStore != nil && f.snapshotStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) EventStore() core.EventStore {
	if f == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) SnapshotStore() core.SnapshotStore {
	if f == nil {
		return nil
	}
	return f.snapshotStore
}

func (f *RepositoryFactory) initStores() error {
	eventStore, err := NewMarketEventStore(f.db)
	if err != nil {
		return err
	}
	f.eventStore = eventStore
	snapshotStore, err := NewBindingSnapshotStore(f.db)
	if err != nil {
		return err
	}
	f.snapshotStore = snapshotStore
	return nil
}

// OpenDB opens a bun connection for one of the supported drivers. Postgres
// uses lib/pq; sqlite3 uses mattn/go-sqlite3.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	switch driver {
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverSQLite:
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		_ = sqldb.Close()
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
