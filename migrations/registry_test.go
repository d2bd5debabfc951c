package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	servicemarket "github.com/goliatone/go-service-market"
	_ "github.com/mattn/go-sqlite3"
)

func TestSources_ReturnsPostgresAndSQLite(t *testing.T) {
	sources, err := Sources()
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}

	dialects := map[string]bool{}
	for _, source := range sources {
		dialects[source.Dialect] = true
		for _, table := range marketTables {
			upName := table.stamp + ".up.sql"
			if _, statErr := fs.Stat(source.FS, upName); statErr != nil {
				t.Fatalf("expected %s schema to carry %s: %v", source.Dialect, upName, statErr)
			}
		}
	}
	if !dialects[DialectPostgres] || !dialects[DialectSQLite] {
		t.Fatalf("expected postgres and sqlite sources, got %v", dialects)
	}
}

func TestCheckSchemaRejectsMissingPair(t *testing.T) {
	partial := fstest.MapFS{
		"20260115000000_create_market_events.up.sql":   {Data: []byte("CREATE TABLE market_events (id TEXT);")},
		"20260115000000_create_market_events.down.sql": {Data: []byte("DROP TABLE market_events;")},
	}
	err := checkSchema(Source{Dialect: DialectSQLite, Path: ".", FS: partial})
	if err == nil {
		t.Fatal("expected missing snapshot pair to fail validation")
	}
	if !strings.Contains(err.Error(), "market_binding_snapshots") {
		t.Fatalf("expected error to name the missing table, got %v", err)
	}
}

func TestRegister_FiltersDialects(t *testing.T) {
	var calls []string
	sources, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, DialectSQLite)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected one sqlite registration call, got %v", calls)
	}
	if len(sources) != 1 || sources[0].Dialect != DialectSQLite {
		t.Fatalf("expected the sqlite source returned, got %+v", sources)
	}
}

func TestRegister_DefaultsCoverBothDialects(t *testing.T) {
	var calls []string
	sources, err := Register(context.Background(), func(_ context.Context, dialect string, sourceLabel string, _ fs.FS) error {
		if sourceLabel != SourceLabel {
			t.Fatalf("unexpected source label %q", sourceLabel)
		}
		calls = append(calls, dialect)
		return nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected both dialects registered, got %v", calls)
	}
	if len(sources) != 2 {
		t.Fatalf("expected both sources returned, got %d", len(sources))
	}
}

func TestRegister_RejectsUnknownDialect(t *testing.T) {
	_, err := Register(context.Background(), func(context.Context, string, string, fs.FS) error {
		t.Fatal("register func must not run for an unknown dialect")
		return nil
	}, "mysql")
	if err == nil {
		t.Fatal("expected unknown dialect to fail")
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected nil register func to fail")
	}
}

func TestTablesMatchSchemaOrder(t *testing.T) {
	want := []string{"market_events", "market_binding_snapshots"}
	got := Tables()
	if len(got) != len(want) {
		t.Fatalf("expected %d tables, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected table %q at position %d, got %q", want[i], i, got[i])
		}
	}
}

func TestMarketSchemaMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := servicemarket.GetCoreMigrationsFS()
	paths := []string{
		"data/sql/migrations/20260115000000_create_market_events.up.sql",
		"data/sql/migrations/20260115000000_create_market_events.down.sql",
		"data/sql/migrations/20260115000001_create_market_binding_snapshots.up.sql",
		"data/sql/migrations/20260115000001_create_market_binding_snapshots.down.sql",
		"data/sql/migrations/sqlite/20260115000000_create_market_events.up.sql",
		"data/sql/migrations/sqlite/20260115000000_create_market_events.down.sql",
		"data/sql/migrations/sqlite/20260115000001_create_market_binding_snapshots.up.sql",
		"data/sql/migrations/sqlite/20260115000001_create_market_binding_snapshots.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteMarketSchemaMigrations_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-market-schema?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	root := servicemarket.GetCoreMigrationsFS()
	sqliteMigrations, err := fs.Sub(root, "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}

	ups := []string{
		"20260115000000_create_market_events.up.sql",
		"20260115000001_create_market_binding_snapshots.up.sql",
	}
	for _, migration := range ups {
		if err := execSQLMigration(context.Background(), db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}

	for _, tableName := range []string{"market_events", "market_binding_snapshots"} {
		var count int
		if err := db.QueryRowContext(
			context.Background(),
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
			tableName,
		).Scan(&count); err != nil {
			t.Fatalf("query sqlite_master for %s: %v", tableName, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist after up migration", tableName)
		}
	}

	insertSnapshot := `
		INSERT INTO market_binding_snapshots
			(id, slot, name, schema, provider, fee, qos, live, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := db.ExecContext(
		context.Background(),
		insertSnapshot,
		"snap-1", 0, "price-oracle", "{}", "provider-1", "10token", 50, 1,
		"2026-01-15T00:00:00Z", "2026-01-15T00:00:00Z",
	); err != nil {
		t.Fatalf("insert snapshot row: %v", err)
	}
	if _, err := db.ExecContext(
		context.Background(),
		insertSnapshot,
		"snap-2", 0, "token-mint", "{}", "provider-2", "5token", 100, 1,
		"2026-01-15T00:00:00Z", "2026-01-15T00:00:00Z",
	); err == nil {
		t.Fatalf("expected unique slot violation")
	}

	downs := []string{
		"20260115000001_create_market_binding_snapshots.down.sql",
		"20260115000000_create_market_events.down.sql",
	}
	for _, migration := range downs {
		if err := execSQLMigration(context.Background(), db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}

	var count int
	if err := db.QueryRowContext(
		context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN (?, ?)`,
		"market_events",
		"market_binding_snapshots",
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite_master after down migration: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected market tables dropped after down migration, got %d", count)
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
