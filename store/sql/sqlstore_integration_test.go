package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-service-market/core"
	marketmigrations "github.com/goliatone/go-service-market/migrations"
	sqlstore "github.com/goliatone/go-service-market/store/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-service-market-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	for _, table := range []string{"market_events", "market_binding_snapshots"} {
		var tableName string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &tableName); err != nil {
			t.Fatalf("query sqlite master for %s: %v", table, err)
		}
		if tableName != table {
			t.Fatalf("expected %s table, got %q", table, tableName)
		}
	}
}

func TestMarketEventStore_AppendAndListBySubject(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.EventStore()
	if store == nil {
		t.Fatal("expected event store from factory")
	}

	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if err := store.Append(ctx, core.Event{
		Type:       core.EventRequestSent,
		Subject:    "req-42",
		Attributes: map[string]any{"service_name": "price-oracle"},
		EmittedAt:  base,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.AppendBatch(ctx, []core.Event{
		{Type: core.EventBindingAdded, Subject: "price-oracle", EmittedAt: base.Add(time.Second)},
		{Type: core.EventBindingRemoved, Subject: "price-oracle", EmittedAt: base.Add(2 * time.Second)},
	}); err != nil {
		t.Fatalf("append batch: %v", err)
	}

	events, err := store.ListBySubject(ctx, " price-oracle ")
	if err != nil {
		t.Fatalf("list by subject: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(events))
	}
	if events[0].Type != core.EventBindingAdded || events[1].Type != core.EventBindingRemoved {
		t.Fatalf("expected oldest-first ordering, got %s then %s", events[0].Type, events[1].Type)
	}

	requestEvents, err := store.ListBySubject(ctx, "req-42")
	if err != nil {
		t.Fatalf("list request subject: %v", err)
	}
	if len(requestEvents) != 1 {
		t.Fatalf("expected 1 request row, got %d", len(requestEvents))
	}
	if got := requestEvents[0].Attributes["service_name"]; got != "price-oracle" {
		t.Fatalf("expected attributes round trip, got %v", got)
	}

	if err := store.Append(ctx, core.Event{Type: core.EventRequestSent}); err == nil {
		t.Fatal("expected blank subject append to fail")
	}
	if _, err := store.ListBySubject(ctx, "  "); err == nil {
		t.Fatal("expected blank subject list to fail")
	}
}

func TestBindingSnapshotStore_SaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.SnapshotStore()
	if store == nil {
		t.Fatal("expected snapshot store from factory")
	}

	layout := []core.ServiceBinding{
		{}, // tombstoned slot 0
		{
			Name:     "token-mint",
			Schema:   `{"input":{},"output":{}}`,
			Provider: core.Identity("provider-2"),
			Fee:      "5token",
			QoS:      100,
		},
	}
	if err := store.Save(ctx, layout); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(loaded))
	}
	if !loaded[0].IsZero() {
		t.Fatalf("expected slot 0 tombstone, got %+v", loaded[0])
	}
	if loaded[1].Name != "token-mint" || loaded[1].QoS != 100 {
		t.Fatalf("unexpected slot 1 binding %+v", loaded[1])
	}

	// a repeat save upserts the same slot rows instead of inserting new ones
	layout[1].Fee = "7token"
	if err := store.Save(ctx, layout); err != nil {
		t.Fatalf("second save: %v", err)
	}
	var rowCount int
	if err := client.DB().NewRaw(
		"SELECT COUNT(*) FROM market_binding_snapshots",
	).Scan(ctx, &rowCount); err != nil {
		t.Fatalf("count snapshot rows: %v", err)
	}
	if rowCount != 2 {
		t.Fatalf("expected 2 snapshot rows after upsert, got %d", rowCount)
	}
	loaded, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("reload snapshot: %v", err)
	}
	if loaded[1].Fee != "7token" {
		t.Fatalf("expected updated fee, got %s", loaded[1].Fee)
	}
}

func TestSnapshotRestoresRegistrySlotLayout(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}

	source, err := core.NewBindingRegistry(core.Identity("owner-module"))
	if err != nil {
		t.Fatalf("new source registry: %v", err)
	}
	if err := source.SetRelayer(ctx, core.Identity("owner-module"), core.Identity("relayer-1")); err != nil {
		t.Fatalf("set relayer: %v", err)
	}
	relayer := core.Identity("relayer-1")
	for _, name := range []string{"price-oracle", "token-mint"} {
		if err := source.AddBinding(ctx, relayer, core.AddBindingInput{
			Name:     name,
			Schema:   `{"input":{},"output":{}}`,
			Provider: core.Identity("provider-1"),
			Fee:      "10token",
			QoS:      50,
		}); err != nil {
			t.Fatalf("add binding %s: %v", name, err)
		}
	}
	if err := source.RemoveBinding(ctx, relayer, "price-oracle"); err != nil {
		t.Fatalf("remove binding: %v", err)
	}

	if err := factory.SnapshotStore().Save(ctx, source.Snapshot()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	loaded, err := factory.SnapshotStore().Load(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	restored, err := core.NewBindingRegistry(core.Identity("owner-module"))
	if err != nil {
		t.Fatalf("new restored registry: %v", err)
	}
	if err := restored.Restore(loaded); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Exists("price-oracle") {
		t.Fatal("expected tombstoned binding to stay removed")
	}
	binding := restored.Get("token-mint")
	if binding.IsZero() || binding.Fee != "10token" {
		t.Fatalf("expected token-mint restored, got %+v", binding)
	}
}

func TestCachedMarketEventStore_HitAndInvalidate(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	base, err := sqlstore.NewMarketEventStore(client.DB())
	if err != nil {
		t.Fatalf("new event store: %v", err)
	}
	cached, err := sqlstore.NewCachedMarketEventStore(base, newTestEventCacheService(t))
	if err != nil {
		t.Fatalf("new cached event store: %v", err)
	}

	emitted := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if err := cached.Append(ctx, core.Event{
		Type:      core.EventRequestSent,
		Subject:   "req-42",
		EmittedAt: emitted,
	}); err != nil {
		t.Fatalf("append through cache: %v", err)
	}

	events, err := cached.ListBySubject(ctx, "req-42")
	if err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	// writing around the cache leaves the primed key stale
	if err := base.Append(ctx, core.Event{
		Type:      core.EventBindingAdded,
		Subject:   "req-42",
		EmittedAt: emitted.Add(time.Second),
	}); err != nil {
		t.Fatalf("append around cache: %v", err)
	}
	events, err = cached.ListBySubject(ctx, "req-42")
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected stale cached read of 1 event, got %d", len(events))
	}

	// an append through the cached store invalidates the key
	if err := cached.Append(ctx, core.Event{
		Type:      core.EventBindingRemoved,
		Subject:   "req-42",
		EmittedAt: emitted.Add(2 * time.Second),
	}); err != nil {
		t.Fatalf("append invalidation: %v", err)
	}
	events, err = cached.ListBySubject(ctx, "req-42")
	if err != nil {
		t.Fatalf("refreshed read: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected refreshed read of 3 events, got %d", len(events))
	}
}

func TestMarketEventCacheKey_Contract(t *testing.T) {
	key, err := sqlstore.MarketEventCacheKey(" req/42 ")
	if err != nil {
		t.Fatalf("build cache key: %v", err)
	}
	const expected = "service-market::events::v1::req%2F42"
	if key != expected {
		t.Fatalf("unexpected cache key contract: got %q want %q", key, expected)
	}
	if _, err := sqlstore.MarketEventCacheKey("  "); err == nil {
		t.Fatal("expected blank subject to fail")
	}
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	if _, err := sqlstore.OpenDB("oracle", "dsn"); err == nil {
		t.Fatal("expected unsupported driver to fail")
	}
}

func TestRepositoryFactoryRejectsUnknownClient(t *testing.T) {
	factory := sqlstore.NewRepositoryFactory()
	if _, err := factory.BuildStores(struct{}{}); err == nil {
		t.Fatal("expected unsupported persistence client to fail")
	}
	if _, err := sqlstore.NewRepositoryFactory().BuildStores(nil); err == nil {
		t.Fatal("expected nil persistence client to fail")
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:market-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = marketmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != marketmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, marketmigrations.DialectSQLite)
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

func newTestEventCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
