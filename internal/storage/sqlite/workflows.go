package sqlite

import (
	"context"
	"database/sql"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
)

// WorkflowStore is the Entity Manager for the table-driven workflow
// state machine. The Lifecycle Engine consults it
// before every status transition instead of hard-coding the state
// graph in Go.
type WorkflowStore struct {
	b *broker.Broker
}

func NewWorkflowStore(b *broker.Broker) *WorkflowStore { return &WorkflowStore{b: b} }

func (s *WorkflowStore) Default(ctx context.Context) (types.Workflow, error) {
	var out types.Workflow
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		var isDefault int
		err := conn.QueryRowContext(ctx, `
			SELECT workflow_id, name, is_default FROM workflows WHERE is_default = 1 LIMIT 1
		`).Scan(&out.WorkflowID, &out.Name, &isDefault)
		if err == sql.ErrNoRows {
			return plmerr.NotFound("workflow", "default")
		}
		if err != nil {
			return plmerr.Storage("query default workflow", err)
		}
		out.IsDefault = isDefault != 0
		return nil
	})
	return out, err
}

func (s *WorkflowStore) States(ctx context.Context, workflowID int64) ([]types.WorkflowState, error) {
	var out []types.WorkflowState
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT state_id, workflow_id, name FROM workflow_states WHERE workflow_id = ? ORDER BY state_id
		`, workflowID)
		if err != nil {
			return plmerr.Storage("list workflow states", err)
		}
		defer rows.Close()
		for rows.Next() {
			var st types.WorkflowState
			if err := rows.Scan(&st.StateID, &st.WorkflowID, &st.Name); err != nil {
				return plmerr.Storage("scan workflow state", err)
			}
			out = append(out, st)
		}
		return rows.Err()
	})
	return out, err
}

// ValidTransitionTx reports whether from->to is a registered transition
// on the default workflow, participating in tx. This is the
// transaction-scoped counterpart to the package-level ValidTransition
// helper in migrations.go, used by the Lifecycle Engine inside its own
// transaction so the check and the subsequent status write are
// atomic.
func ValidTransitionTx(ctx context.Context, tx *sql.Tx, from, to string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM workflow_transitions wt
		JOIN workflows w ON w.workflow_id = wt.workflow_id
		WHERE w.is_default = 1 AND wt.from_state = ? AND wt.to_state = ?
	`, from, to).Scan(&count)
	if err != nil {
		return false, plmerr.Storage("check workflow transition", err)
	}
	return count > 0, nil
}
