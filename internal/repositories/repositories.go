// package repositories provides the SQLite persistence layer: the key-value cache and the submission log.
package repositories

import (
	"database/sql"
	"fmt"
)

// sequenced lists the tables that own a "<table>_sequence" counter row.
var sequenced = map[string]string{
	"submissions": "UPDATE submissions_sequence SET value = value + 1 WHERE id = 1 RETURNING value",
}

// NextSequence increments and returns the counter for table in a single statement.
//
// Sequence numbers give submissions a stable, human-readable order (e.g. submission #42)
// that survives soft deletes.
func NextSequence(db *sql.DB, table string) (int, error) {
	query, ok := sequenced[table]
	if !ok {
		return 0, fmt.Errorf("no sequence for table %q", table)
	}

	var sequence int
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}
