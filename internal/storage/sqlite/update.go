// ABOUTME: Builds UPDATE statements from patch assignments
// ABOUTME: Keeps per-field branching out of the store methods
package sqlite

import (
	"strings"

	"github.com/harper/marginalia/internal/models"
)

// buildUpdate renders "UPDATE table SET a = ?, b = ? WHERE id = ?" and its
// arguments. It returns an empty statement when there is nothing to write.
func buildUpdate(table, id string, assignments []models.Assignment) (string, []interface{}) {
	if len(assignments) == 0 {
		return "", nil
	}

	sets := make([]string, 0, len(assignments))
	args := make([]interface{}, 0, len(assignments)+1)
	for _, a := range assignments {
		sets = append(sets, a.Column+" = ?")
		args = append(args, a.Value)
	}
	args = append(args, id)

	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?", args
}

// applyPatch writes assignments to the row with the given id and reports
// whether the row exists.
func applyPatch(q querier, table, id string, assignments []models.Assignment) (bool, error) {
	stmt, args := buildUpdate(table, id, assignments)
	if stmt == "" {
		var n int
		if err := q.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n); err != nil {
			return false, err
		}
		return n > 0, nil
	}

	result, err := q.Exec(stmt, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// deleteByID removes one row and reports whether it existed.
func deleteByID(q querier, table, id string) (bool, error) {
	result, err := q.Exec("DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
