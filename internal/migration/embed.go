package migration

import "embed"

// Schema migrations ship inside the binary so a fresh deployment can
// bootstrap its database without external files.
const migrationsDir = "migrations"

//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS
