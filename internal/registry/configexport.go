package registry

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
)

// exportSeedConfig mirrors the metadata store's category, subcategory,
// and workflow tables into the repository's config/ JSON documents, so
// the repository carries a reviewable copy of the catalog it was built
// against. The database stays authoritative; these files are rewritten
// on every activation.
func exportSeedConfig(repoRoot string, db *sql.DB) error {
	type categoryDoc struct {
		Name        string `json:"name"`
		Code        string `json:"code"`
		Description string `json:"description,omitempty"`
	}
	type subcategoryDoc struct {
		Category    string `json:"category"`
		Name        string `json:"name"`
		Code        string `json:"code"`
		Description string `json:"description,omitempty"`
	}

	var categories []categoryDoc
	rows, err := db.Query(`SELECT name, code, description FROM categories ORDER BY code`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var c categoryDoc
		if err := rows.Scan(&c.Name, &c.Code, &c.Description); err != nil {
			rows.Close()
			return err
		}
		categories = append(categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	var subcategories []subcategoryDoc
	rows, err = db.Query(`
		SELECT c.code, sc.name, sc.code, sc.description
		FROM subcategories sc JOIN categories c ON c.category_id = sc.category_id
		ORDER BY c.code, sc.code
	`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var sc subcategoryDoc
		if err := rows.Scan(&sc.Category, &sc.Name, &sc.Code, &sc.Description); err != nil {
			rows.Close()
			return err
		}
		subcategories = append(subcategories, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	type workflowDoc struct {
		Name        string      `json:"name"`
		States      []string    `json:"states"`
		Transitions [][2]string `json:"transitions"`
	}
	var wf workflowDoc
	if err := db.QueryRow(`SELECT name FROM workflows WHERE is_default = 1 LIMIT 1`).Scan(&wf.Name); err != nil {
		return err
	}
	rows, err = db.Query(`
		SELECT ws.name FROM workflow_states ws
		JOIN workflows w ON w.workflow_id = ws.workflow_id
		WHERE w.is_default = 1 ORDER BY ws.state_id
	`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		wf.States = append(wf.States, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	rows, err = db.Query(`
		SELECT wt.from_state, wt.to_state FROM workflow_transitions wt
		JOIN workflows w ON w.workflow_id = wt.workflow_id
		WHERE w.is_default = 1 ORDER BY wt.transition_id
	`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var t [2]string
		if err := rows.Scan(&t[0], &t[1]); err != nil {
			rows.Close()
			return err
		}
		wf.Transitions = append(wf.Transitions, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	files := []struct {
		path string
		v    any
	}{
		{filepath.Join("config", "categories", "categories.json"), categories},
		{filepath.Join("config", "categories", "subcategories.json"), subcategories},
		{filepath.Join("config", "workflows", wf.Name+".json"), wf},
	}
	for _, f := range files {
		data, err := json.MarshalIndent(f.v, "", "  ")
		if err != nil {
			return err
		}
		full := filepath.Join(repoRoot, f.path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, append(data, '\n'), 0o644); err != nil {
			return err
		}
	}
	return nil
}
