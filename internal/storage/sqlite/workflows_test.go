package sqlite

import (
	"context"
	"database/sql"
	"testing"
)

func TestWorkflowDefaultReturnsSeededWorkflow(t *testing.T) {
	b := newTestBroker(t)
	workflows := NewWorkflowStore(b)
	ctx := context.Background()

	wf, err := workflows.Default(ctx)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if wf.Name != "default" || !wf.IsDefault {
		t.Fatalf("expected the seeded default workflow, got %+v", wf)
	}
}

func TestWorkflowStatesReturnsAllFourStates(t *testing.T) {
	b := newTestBroker(t)
	workflows := NewWorkflowStore(b)
	ctx := context.Background()

	wf, err := workflows.Default(ctx)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	states, err := workflows.States(ctx, wf.WorkflowID)
	if err != nil {
		t.Fatalf("States: %v", err)
	}
	if len(states) != 4 {
		t.Fatalf("expected 4 seeded states, got %d: %+v", len(states), states)
	}
	names := map[string]bool{}
	for _, s := range states {
		names[s.Name] = true
	}
	for _, want := range []string{"Draft", "InReview", "Released", "Obsolete"} {
		if !names[want] {
			t.Fatalf("expected state %q among %v", want, states)
		}
	}
}

func TestValidTransitionTxMatchesSeededGraph(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	var allowed, disallowed bool
	err := b.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		allowed, err = ValidTransitionTx(ctx, tx, "Draft", "InReview")
		if err != nil {
			return err
		}
		disallowed, err = ValidTransitionTx(ctx, tx, "Released", "Draft")
		return err
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if !allowed {
		t.Fatalf("expected Draft -> InReview to be a valid transition")
	}
	if disallowed {
		t.Fatalf("expected Released -> Draft to be absent from the seeded graph")
	}
}
