// ABOUTME: Repair-and-retry wrapper used by every store operation
// ABOUTME: A missing-table fault triggers one Reconcile and one retry
package sqlite

import (
	"errors"
	"fmt"
	"strings"
)

// isMissingObject reports whether err comes from querying a table that does
// not exist.
func isMissingObject(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table")
}

// withRepair runs op; if it fails because a table is missing, it reconciles
// the schema and runs op exactly once more. The retry happens even when
// another caller already repaired the schema. Constraint violations and
// other faults are returned untouched.
func withRepair[T any](db *DB, op func() (T, error)) (T, error) {
	v, err := op()
	if !isMissingObject(err) {
		return v, err
	}

	report, rerr := db.Reconcile()
	if rerr != nil {
		return v, errors.Join(err, rerr)
	}
	db.logger.Debug("retrying after schema repair", "repaired", report.Repaired, "tables", report.Tables)
	v, err = op()
	if err != nil {
		return v, fmt.Errorf("after schema repair: %w", err)
	}
	return v, nil
}

// execWithRepair is withRepair for operations that return only an error.
func execWithRepair(db *DB, op func() error) error {
	_, err := withRepair(db, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
