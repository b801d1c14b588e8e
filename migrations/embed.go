// Package migrations compiles the SQL migration files into the binary
// so deployments never depend on loose .sql files on disk. Importing the
// package (blank import from main) is enough to register them.
package migrations

import (
	"embed"

	"github.com/casapulse/pulse-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // files sit at the root of the embedded FS
}
