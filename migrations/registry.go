package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	servicemarket "github.com/goliatone/go-service-market"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// SourceLabel tags the market schema in the host's migration log.
const SourceLabel = "go-service-market"

// The market schema is fixed: one timestamped up/down pair per table per
// dialect. New tables are added here alongside their migration files.
var marketTables = []marketTable{
	{name: "market_events", stamp: "20260115000000_create_market_events"},
	{name: "market_binding_snapshots", stamp: "20260115000001_create_market_binding_snapshots"},
}

type marketTable struct {
	name  string
	stamp string
}

// Source is the resolved migration filesystem for one dialect.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// RegisterFunc is the host-side hook that feeds one dialect's filesystem into
// its migration runner.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

// Tables lists the table names the market schema creates, in creation order.
func Tables() []string {
	names := make([]string, 0, len(marketTables))
	for _, table := range marketTables {
		names = append(names, table.name)
	}
	return names
}

// Sources resolves the per-dialect migration filesystems from the embedded
// schema tree and verifies every market table's up/down pair is present in
// each of them.
func Sources() ([]Source, error) {
	root := servicemarket.GetCoreMigrationsFS()
	base, err := fs.Sub(root, "data/sql/migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve schema root: %w", err)
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: "data/sql/migrations", FS: base},
		{Dialect: DialectSQLite, Path: "data/sql/migrations/sqlite", FS: sqliteFS},
	}
	for _, source := range sources {
		if err := checkSchema(source); err != nil {
			return nil, err
		}
	}
	return sources, nil
}

func checkSchema(source Source) error {
	for _, table := range marketTables {
		for _, direction := range []string{"up", "down"} {
			name := fmt.Sprintf("%s.%s.sql", table.stamp, direction)
			if _, err := fs.Stat(source.FS, name); err != nil {
				return fmt.Errorf("migrations: %s schema is missing %s for table %s: %w", source.Dialect, name, table.name, err)
			}
		}
	}
	return nil
}

// Register resolves the embedded schema and hands each requested dialect's
// filesystem to registerFn under the market source label. With no dialects
// given, both postgres and sqlite are registered.
func Register(ctx context.Context, registerFn RegisterFunc, dialects ...string) ([]Source, error) {
	if registerFn == nil {
		return nil, fmt.Errorf("migrations: register function is required")
	}
	wanted, err := normalizeDialects(dialects)
	if err != nil {
		return nil, err
	}
	sources, err := Sources()
	if err != nil {
		return nil, err
	}

	registered := make([]Source, 0, len(wanted))
	for _, source := range sources {
		if _, ok := wanted[source.Dialect]; !ok {
			continue
		}
		if err := registerFn(ctx, source.Dialect, SourceLabel, source.FS); err != nil {
			return nil, fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Path, err)
		}
		registered = append(registered, source)
	}
	return registered, nil
}

func normalizeDialects(dialects []string) (map[string]struct{}, error) {
	wanted := make(map[string]struct{}, 2)
	if len(dialects) == 0 {
		wanted[DialectPostgres] = struct{}{}
		wanted[DialectSQLite] = struct{}{}
		return wanted, nil
	}
	for _, dialect := range dialects {
		normalized := strings.ToLower(strings.TrimSpace(dialect))
		if normalized == "" {
			continue
		}
		if normalized != DialectPostgres && normalized != DialectSQLite {
			return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
		}
		wanted[normalized] = struct{}{}
	}
	if len(wanted) == 0 {
		return nil, fmt.Errorf("migrations: at least one dialect is required")
	}
	return wanted, nil
}
