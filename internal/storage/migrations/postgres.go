package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"portfolio-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded schema files in lexical
// order. Each file runs as one Exec and must be written idempotently so
// a restart can replay the full set.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	names, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, name := range names {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
