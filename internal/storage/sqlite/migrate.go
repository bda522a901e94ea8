// ABOUTME: Schema manager: versioned migrations and idempotent reconciliation
// ABOUTME: Reconcile recreates missing objects and never drops existing ones
package sqlite

import (
	"database/sql"
	"fmt"
)

// RepairReport describes what Reconcile recreated.
type RepairReport struct {
	Repaired bool     `json:"repaired"`
	Tables   []string `json:"tables"`
	Objects  []string `json:"objects,omitempty"`
}

// SchemaVersion returns the highest recorded schema version, or 0 for a
// store that has never been migrated.
func (db *DB) SchemaVersion() (int, error) {
	exists, err := objectExists(db.conn, kindTable, schemaVersionTable)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var version int
	if err := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// Migrate applies every missing migration step in order inside a single
// transaction and returns the resulting schema version. Either all steps
// commit or none do.
func (db *DB) Migrate() (int, error) {
	current, err := db.SchemaVersion()
	if err != nil {
		return 0, err
	}
	if current >= CurrentSchemaVersion {
		return current, nil
	}

	err = db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(createSchemaVersion); err != nil {
			return fmt.Errorf("creating schema_version table: %w", err)
		}
		for v := current + 1; v <= CurrentSchemaVersion; v++ {
			db.logger.Info("applying migration", "version", v, "description", versionDescriptions[v])
			if err := applyVersion(tx, v); err != nil {
				return fmt.Errorf("migration %d failed: %w", v, err)
			}
			if _, err := tx.Exec(
				"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
				v, versionDescriptions[v], db.nowMillis()); err != nil {
				return fmt.Errorf("recording migration %d: %w", v, err)
			}
		}
		return nil
	})
	if err != nil {
		return current, err
	}
	return CurrentSchemaVersion, nil
}

// applyVersion creates the objects introduced by version v and indexes any
// rows that predate the full-text tables.
func applyVersion(tx *sql.Tx, v int) error {
	created := map[string]bool{}
	for _, o := range schemaObjects {
		if o.since != v {
			continue
		}
		if _, err := tx.Exec(o.create); err != nil {
			return fmt.Errorf("creating %s %s: %w", o.kind, o.name, err)
		}
		created[o.name] = true
	}
	for _, idx := range ftsIndexes {
		if created[idx.table] {
			if err := rebuildFTS(tx, idx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reconcile checks every object the current schema version requires and
// recreates the missing ones. Existing tables are never dropped or
// truncated; full-text tables whose index or base table was recreated are
// rebuilt from the base table. Calling it on a complete schema is a no-op.
func (db *DB) Reconcile() (*RepairReport, error) {
	db.repairMu.Lock()
	defer db.repairMu.Unlock()

	report := &RepairReport{Tables: []string{}}

	err := db.inTx(func(tx *sql.Tx) error {
		versionMissing, err := ensureObject(tx, kindTable, schemaVersionTable, createSchemaVersion)
		if err != nil {
			return err
		}
		if versionMissing {
			report.Tables = append(report.Tables, schemaVersionTable)
			if _, err := tx.Exec(
				"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
				CurrentSchemaVersion, "restored by schema repair", db.nowMillis()); err != nil {
				return fmt.Errorf("restoring schema version: %w", err)
			}
		}

		recreated := map[string]bool{}
		for _, o := range schemaObjects {
			missing, err := ensureObject(tx, o.kind, o.name, o.create)
			if err != nil {
				return err
			}
			if !missing {
				continue
			}
			recreated[o.name] = true
			if o.kind == kindTable {
				report.Tables = append(report.Tables, o.name)
			} else {
				report.Objects = append(report.Objects, o.name)
			}
		}

		for _, idx := range ftsIndexes {
			if recreated[idx.table] || recreated[idx.base] {
				if err := rebuildFTS(tx, idx); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schema repair: %w", err)
	}

	report.Repaired = len(report.Tables) > 0 || len(report.Objects) > 0
	if report.Repaired {
		db.logger.Warn("schema repaired", "tables", report.Tables, "objects", report.Objects)
	}
	return report, nil
}

// ensureObject creates the object when sqlite_master does not list it and
// reports whether it had to.
func ensureObject(q querier, kind, name, create string) (bool, error) {
	exists, err := objectExists(q, kind, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := q.Exec(create); err != nil {
		return false, fmt.Errorf("recreating %s %s: %w", kind, name, err)
	}
	return true, nil
}

func objectExists(q querier, kind, name string) (bool, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s %s: %w", kind, name, err)
	}
	return n > 0, nil
}

func rebuildFTS(tx *sql.Tx, idx ftsIndex) error {
	if _, err := tx.Exec("DELETE FROM " + idx.table); err != nil {
		return fmt.Errorf("clearing %s: %w", idx.table, err)
	}
	if _, err := tx.Exec(idx.rebuild); err != nil {
		return fmt.Errorf("rebuilding %s: %w", idx.table, err)
	}
	return nil
}
