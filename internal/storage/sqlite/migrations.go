// Package sqlite implements the Metadata Store: schema initialization,
// forward migrations, and the entity stores layered over the
// connection broker. It also derives the part-number projection.
package sqlite

import (
	"database/sql"
	"fmt"
)

// Migration represents a single forward, idempotent schema change.
// schema_version is incremented exactly once per registered migration;
// INSERT OR IGNORE guards against duplicate seeding.
type Migration struct {
	Version     int
	Description string
	Func        func(*sql.Tx) error
}

// migrationsList is the ordered list of all migrations. Version 1 is a
// no-op that records the baseline schema in schema.go. New migrations
// are appended; existing entries are never edited once released.
var migrationsList = []Migration{
	{1, "baseline schema (categories, parts, revisions, workflows, events)", func(*sql.Tx) error { return nil }},
}

// Initialize applies the baseline schema (if absent) and runs any
// migrations not yet recorded in schema_version, then seeds default
// categories/subcategories/workflow/part_sequence on first init.
//
// Uses an EXCLUSIVE transaction so two processes racing to initialize
// the same fresh database file cannot both seed it.
func Initialize(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply baseline schema: %w", err)
	}

	if _, err := db.Exec("BEGIN EXCLUSIVE"); err != nil {
		return fmt.Errorf("acquire exclusive lock for migrations: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = db.Exec("ROLLBACK")
		}
	}()

	// database/sql has no way to wrap an already-open connection-level
	// transaction in a *sql.Tx, so migrations run directly against db
	// within the BEGIN EXCLUSIVE ... COMMIT bracket instead.
	for _, m := range migrationsList {
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version WHERE version = ?`, m.Version).Scan(&count); err != nil {
			return fmt.Errorf("check schema_version: %w", err)
		}
		if count > 0 {
			continue
		}
		if err := runMigrationFunc(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec(`INSERT OR IGNORE INTO schema_version (version, description) VALUES (?, ?)`,
			m.Version, m.Description); err != nil {
			return fmt.Errorf("record schema_version %d: %w", m.Version, err)
		}
	}

	if err := seedDefaults(db); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	if _, err := db.Exec("COMMIT"); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	committed = true
	return nil
}

// runMigrationFunc calls a Migration.Func (which expects a *sql.Tx, the
// convenient shape for future migrations that need statement-level
// rollback within the outer EXCLUSIVE bracket) with a nil *sql.Tx; db
// is not passed on. Only the baseline migration, which ignores its
// argument, is registered.
func runMigrationFunc(db *sql.DB, m Migration) error {
	if m.Func == nil {
		return nil
	}
	return m.Func(nil) //nolint:staticcheck // baseline migration ignores its argument
}

// defaultCategories and defaultSubcategories seed the minimum
// category/subcategory set.
var defaultCategories = []struct {
	name, code, description string
}{
	{"Electronic", "EL", "Electronic components"},
	{"Mechanical", "ME", "Mechanical components"},
	{"Assembly", "AS", "Assemblies"},
	{"Software", "SW", "Software artifacts"},
	{"Documentation", "DO", "Documentation"},
}

var defaultSubcategories = map[string][]struct{ name, code string }{
	"EL": {
		{"Symbol", "SYM"}, {"Footprint", "FPR"}, {"3D Model", "3DM"},
		{"Resistor", "RES"}, {"Capacitor", "CAP"}, {"Inductor", "IND"},
		{"Integrated Circuit", "ICT"}, {"Diode", "DIO"}, {"Transistor", "FET"},
		{"Connector", "CON"}, {"PCB", "PCB"}, {"PCA", "PCA"},
	},
}

func seedDefaults(db *sql.DB) error {
	for _, c := range defaultCategories {
		if _, err := db.Exec(`INSERT OR IGNORE INTO categories (name, code, description) VALUES (?, ?, ?)`,
			c.name, c.code, c.description); err != nil {
			return fmt.Errorf("seed category %s: %w", c.code, err)
		}
	}

	for catCode, subs := range defaultSubcategories {
		var categoryID int64
		if err := db.QueryRow(`SELECT category_id FROM categories WHERE code = ?`, catCode).Scan(&categoryID); err != nil {
			return fmt.Errorf("look up category %s for seeding: %w", catCode, err)
		}
		for _, s := range subs {
			if _, err := db.Exec(`INSERT OR IGNORE INTO subcategories (category_id, name, code) VALUES (?, ?, ?)`,
				categoryID, s.name, s.code); err != nil {
				return fmt.Errorf("seed subcategory %s/%s: %w", catCode, s.code, err)
			}
		}
	}

	if err := seedDefaultWorkflow(db); err != nil {
		return err
	}

	if _, err := db.Exec(`INSERT OR IGNORE INTO part_sequence (id, next_value) VALUES (1, 10000)`); err != nil {
		return fmt.Errorf("seed part_sequence: %w", err)
	}

	return nil
}

// defaultWorkflowTransitions encodes the default state machine:
// Draft -> InReview -> Released -> Obsolete, with the InReview -> Draft
// back-edge on reject. Released -> Draft is deliberately absent: a new
// revision is a new row, never a mutation of the released one.
var defaultWorkflowTransitions = [][2]string{
	{"Draft", "InReview"},
	{"InReview", "Released"},
	{"InReview", "Draft"},
	{"Released", "Obsolete"},
}

func seedDefaultWorkflow(db *sql.DB) error {
	res, err := db.Exec(`INSERT OR IGNORE INTO workflows (name, is_default) VALUES ('default', 1)`)
	if err != nil {
		return fmt.Errorf("seed default workflow: %w", err)
	}
	var workflowID int64
	if n, _ := res.RowsAffected(); n > 0 {
		workflowID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("get default workflow id: %w", err)
		}
	} else {
		if err := db.QueryRow(`SELECT workflow_id FROM workflows WHERE name = 'default'`).Scan(&workflowID); err != nil {
			return fmt.Errorf("look up default workflow: %w", err)
		}
	}

	for _, state := range []string{"Draft", "InReview", "Released", "Obsolete"} {
		if _, err := db.Exec(`INSERT OR IGNORE INTO workflow_states (workflow_id, name) VALUES (?, ?)`, workflowID, state); err != nil {
			return fmt.Errorf("seed workflow state %s: %w", state, err)
		}
	}
	for _, t := range defaultWorkflowTransitions {
		if _, err := db.Exec(`INSERT OR IGNORE INTO workflow_transitions (workflow_id, from_state, to_state) VALUES (?, ?, ?)`,
			workflowID, t[0], t[1]); err != nil {
			return fmt.Errorf("seed workflow transition %s->%s: %w", t[0], t[1], err)
		}
	}
	return nil
}

// ValidTransition reports whether from->to is a registered transition on
// the default workflow. The Lifecycle Engine checks this before every
// status change rather than hard-coding the state machine, so a future
// custom workflow can be swapped in without code changes as long as its
// state names match.
func ValidTransition(db *sql.DB, from, to string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM workflow_transitions wt
		JOIN workflows w ON w.workflow_id = wt.workflow_id
		WHERE w.is_default = 1 AND wt.from_state = ? AND wt.to_state = ?
	`, from, to).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
