package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// migrationName matches "0001_add_index_up.sql".
var migrationName = regexp.MustCompile(`^(\d+)_(.+)_(up|down)\.sql$`)

// Migration is one versioned schema change with its up and down SQL.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// MigrationStatus describes how far a database is behind the embedded migrations.
type MigrationStatus struct {
	Current int
	Latest  int
	Pending []Migration
}

// UpToDate reports whether every embedded migration has been applied.
func (s MigrationStatus) UpToDate() bool { return len(s.Pending) == 0 }

// loadMigrations reads the embedded migrations, sorted by version.
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		m := migrationName.FindStringSubmatch(entry.Name())
		if entry.IsDir() || m == nil {
			continue
		}

		version, _ := strconv.Atoi(m[1])
		content, err := migrationFiles.ReadFile(path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		migration := byVersion[version]
		if migration == nil {
			migration = &Migration{Version: version, Name: m[2]}
			byVersion[version] = migration
		}
		if m[3] == "up" {
			migration.Up = string(content)
		} else {
			migration.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, migration := range byVersion {
		if migration.Up == "" || migration.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", migration.Version)
		}
		migrations = append(migrations, *migration)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })

	return migrations, nil
}

// CheckMigrations reports the applied version and the migrations still to run.
func CheckMigrations(db *sql.DB) (MigrationStatus, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := createMigrationsTable(db); err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return MigrationStatus{}, err
	}

	status := MigrationStatus{Current: -1, Latest: -1}
	for _, m := range migrations {
		status.Latest = m.Version
		if applied[m.Version] {
			status.Current = max(status.Current, m.Version)
		} else {
			status.Pending = append(status.Pending, m)
		}
	}
	return status, nil
}

// RunMigrations applies every pending migration in version order.
func RunMigrations(db *sql.DB) error {
	status, err := CheckMigrations(db)
	if err != nil {
		return err
	}

	for _, m := range status.Pending {
		if err := migrate(db, m.Up, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// RollbackMigration reverts the most recently applied migration and returns it.
func RollbackMigration(db *sql.DB) (Migration, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return Migration{}, fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return Migration{}, err
	}

	for _, m := range slices.Backward(migrations) {
		if !applied[m.Version] {
			continue
		}
		if err := migrate(db, m.Down, "DELETE FROM schema_migrations WHERE version = ?", m.Version); err != nil {
			return Migration{}, fmt.Errorf("failed to rollback migration %d (%s): %w", m.Version, m.Name, err)
		}
		return m, nil
	}
	return Migration{}, fmt.Errorf("no migrations to rollback")
}

// ResetDatabase rolls back every migration and applies them again, emptying all tables.
func ResetDatabase(db *sql.DB) error {
	for {
		status, err := CheckMigrations(db)
		if err != nil {
			return err
		}
		if status.Current < 0 {
			break
		}
		if _, err := RollbackMigration(db); err != nil {
			return err
		}
	}
	return RunMigrations(db)
}

func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// migrate runs script statement by statement and then record, in one transaction.
func migrate(db *sql.DB, script, record string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements strips "--" comments and splits script on semicolons.
func splitStatements(script string) []string {
	var lines []string
	for line := range strings.Lines(script) {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	var statements []string
	for stmt := range strings.SplitSeq(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
