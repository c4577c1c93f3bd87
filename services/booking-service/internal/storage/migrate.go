package storage

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/md-rashed-zaman/courtbook/libs/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the bundled schema files in name order. Every statement is
// idempotent, so it is safe on each start.
func Migrate(ctx context.Context, pool *db.Pool) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return err
		}
	}
	return nil
}
