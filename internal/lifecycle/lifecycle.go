// Package lifecycle implements the Lifecycle Engine, the central
// algorithm of the system: the six transactional operations that move a
// Part and its Revisions through Draft -> InReview -> Released ->
// Obsolete, each one a single database transaction that also drives the
// Git Backend and never returns success unless both stores agree.
package lifecycle

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/implexa/implexa/internal/diagnostics"
	"github.com/implexa/implexa/internal/gitbackend"
	"github.com/implexa/implexa/internal/hooks"
	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/storage/sqlite"
	"github.com/implexa/implexa/internal/types"
)

// Engine wires the Connection Broker, the Entity Managers it drives
// transactionally, and the Git Backend of the currently open repository
//. It holds no state of its own beyond these handles, so
// the Repository State Registry can discard and replace an Engine
// wholesale on open_repository/close_repository.
type Engine struct {
	Broker *broker.Broker
	Git    *gitbackend.Backend

	Parts       *sqlite.PartStore
	Revisions   *sqlite.RevisionStore
	Categories  *sqlite.CategoryStore
	PartNumbers *sqlite.PartNumberStore
	Approvals   *sqlite.ApprovalStore
	Properties  *sqlite.PropertyStore
	Events      *sqlite.EventStore
}

// New builds an Engine over an already-open Broker and Git Backend. The
// Registry is responsible for keeping these two in sync (a Git Backend
// without its matching metadata store, or vice versa, is exactly the
// "hard path" recovery scenario the error taxonomy documents).
func New(b *broker.Broker, git *gitbackend.Backend) *Engine {
	return &Engine{
		Broker:      b,
		Git:         git,
		Parts:       sqlite.NewPartStore(b),
		Revisions:   sqlite.NewRevisionStore(b),
		Categories:  sqlite.NewCategoryStore(b),
		PartNumbers: sqlite.NewPartNumberStore(b),
		Approvals:   sqlite.NewApprovalStore(b),
		Properties:  sqlite.NewPropertyStore(b),
		Events:      sqlite.NewEventStore(b),
	}
}

// requireMutate is the permission check shared by every operation
// except mark_obsolete.
func requireMutate(user types.User, action string) error {
	if !user.MayMutate() {
		return plmerr.Permission(action, "role "+string(user.Role)+" may not mutate")
	}
	return nil
}

// CreatePart implements create_part. Steps 1-4 and the
// initial Revision insert happen inside one database transaction; the
// branch creation in step 5 happens while that transaction is still
// open, so a Git failure rolls the DB side back with it. Once the
// transaction commits, a later branch-creation failure would leave the
// two stores apparently agreeing (no orphaned branch, no orphaned row)
// because commit is the function's last step. The documented hard
// path only arises if the process crashes between Git's write and the
// commit, which is a crash-recovery concern outside this function's
// control.
func (e *Engine) CreatePart(ctx context.Context, user types.User, category, subcategory, name, description string) (types.Part, types.Revision, error) {
	if err := requireMutate(user, "create_part"); err != nil {
		return types.Part{}, types.Revision{}, err
	}

	var part types.Part
	var revision types.Revision

	err := e.Broker.Transaction(ctx, func(tx *sql.Tx) error {
		cat, err := e.categoryTx(ctx, tx, category)
		if err != nil {
			return err
		}
		sub, err := e.subcategoryTx(ctx, tx, category, subcategory)
		if err != nil {
			return err
		}

		partID, err := sqlite.NextPartIDTx(ctx, tx)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO parts (part_id, category_id, subcategory_id, name, description)
			VALUES (?, ?, ?, ?, ?)
		`, partID, cat.CategoryID, sub.SubcategoryID, name, description); err != nil {
			return plmerr.Storage("insert part", err)
		}

		display := cat.Code + "-" + sub.Code + "-" + strconv.FormatInt(partID, 10)

		revisionID, err := sqlite.CreateRevisionTx(ctx, tx, partID, "1", user.Username)
		if err != nil {
			return err
		}

		draftBranch := types.DraftBranch(display, "1")
		if err := e.Git.CreateBranch(draftBranch, gitbackend.MainBranch); err != nil {
			return err
		}
		if err := e.Git.CheckoutBranch(draftBranch); err != nil {
			return err
		}

		if err := sqlite.RecordTx(ctx, tx, "part", partID, "created", user.Username, display); err != nil {
			return err
		}

		part, err = sqlite.GetPartInTx(ctx, tx, partID)
		if err != nil {
			return err
		}
		revision, err = sqlite.GetRevisionInTx(ctx, tx, revisionID)
		return err
	})
	if err != nil {
		return types.Part{}, types.Revision{}, diagnosticsOnIntegrity("create_part", err)
	}
	return part, revision, nil
}

// SubmitForReview implements submit_for_review.
func (e *Engine) SubmitForReview(ctx context.Context, user types.User, revisionID int64, reviewers []string) error {
	if err := requireMutate(user, "submit_for_review"); err != nil {
		return err
	}
	return diagnosticsOnIntegrity("submit_for_review", e.Broker.Transaction(ctx, func(tx *sql.Tx) error {
		rev, err := sqlite.GetRevisionInTx(ctx, tx, revisionID)
		if err != nil {
			return err
		}
		if rev.Status != types.StatusDraft {
			return plmerr.State("revision " + strconv.FormatInt(revisionID, 10) + " is not Draft")
		}
		if user.Role != types.RoleAdmin && rev.CreatedBy != user.Username {
			return plmerr.Permission("submit_for_review", "only the author or an Admin may submit this revision")
		}

		display, err := sqlite.DisplayNumberTx(ctx, tx, rev.PartID)
		if err != nil {
			return err
		}
		draftBranch := types.DraftBranch(display, rev.Version)
		reviewBranch := types.ReviewBranch(display, rev.Version)

		if err := e.Git.CreateBranch(reviewBranch, draftBranch); err != nil {
			return err
		}

		ok, err := sqlite.ValidTransitionTx(ctx, tx, string(types.StatusDraft), string(types.StatusInReview))
		if err != nil {
			return err
		}
		if !ok {
			return plmerr.Integrity("workflow has no Draft -> InReview transition registered")
		}
		if err := sqlite.SetStatusTx(ctx, tx, revisionID, types.StatusInReview, ""); err != nil {
			return err
		}

		for _, reviewer := range reviewers {
			if _, err := sqlite.RequestApprovalTx(ctx, tx, revisionID, reviewer); err != nil {
				return err
			}
		}

		return sqlite.RecordTx(ctx, tx, "revision", revisionID, "submitted_for_review", user.Username, reviewBranch)
	}))
}

// Approve implements approve.
func (e *Engine) Approve(ctx context.Context, user types.User, revisionID int64, comments string) error {
	return e.recordVerdict(ctx, user, revisionID, types.ApprovalApproved, comments)
}

// Reject implements reject. Rejecting moves the
// revision back to Draft (the state machine's one back-edge), so the
// author can address comments on the same draft branch.
func (e *Engine) Reject(ctx context.Context, user types.User, revisionID int64, comments string) error {
	return e.recordVerdict(ctx, user, revisionID, types.ApprovalRejected, comments)
}

func (e *Engine) recordVerdict(ctx context.Context, user types.User, revisionID int64, verdict types.ApprovalStatus, comments string) error {
	if err := requireMutate(user, string(verdict)); err != nil {
		return err
	}
	return diagnosticsOnIntegrity(string(verdict), e.Broker.Transaction(ctx, func(tx *sql.Tx) error {
		rev, err := sqlite.GetRevisionInTx(ctx, tx, revisionID)
		if err != nil {
			return err
		}
		if rev.Status != types.StatusInReview {
			return plmerr.State("revision " + strconv.FormatInt(revisionID, 10) + " is not InReview")
		}
		if user.Username == rev.CreatedBy {
			return plmerr.Permission(string(verdict), "the author of a revision may not approve or reject it")
		}

		if err := sqlite.RecordVerdictTx(ctx, tx, revisionID, user.Username, verdict, comments); err != nil {
			return err
		}

		if verdict == types.ApprovalRejected {
			ok, err := sqlite.ValidTransitionTx(ctx, tx, string(types.StatusInReview), string(types.StatusDraft))
			if err != nil {
				return err
			}
			if !ok {
				return plmerr.Integrity("workflow has no InReview -> Draft transition registered")
			}
			if err := sqlite.SetStatusTx(ctx, tx, revisionID, types.StatusDraft, ""); err != nil {
				return err
			}
		}

		return sqlite.RecordTx(ctx, tx, "revision", revisionID, string(verdict), user.Username, comments)
	}))
}

// ReleaseRevision implements release_revision. A repository may register
// pre-release/post-release hooks under config/hooks/; the pre-release
// hook gates the merge, the post-release hook runs best-effort after the
// transaction commits.
func (e *Engine) ReleaseRevision(ctx context.Context, user types.User, revisionID int64) error {
	if err := requireMutate(user, "release_revision"); err != nil {
		return err
	}
	runner := hooks.NewRunner(e.Git.Path())
	err := e.Broker.Transaction(ctx, func(tx *sql.Tx) error {
		rev, err := sqlite.GetRevisionInTx(ctx, tx, revisionID)
		if err != nil {
			return err
		}
		if rev.Status != types.StatusInReview {
			return plmerr.State("revision " + strconv.FormatInt(revisionID, 10) + " is not InReview")
		}

		anyRejected, err := sqlite.AnyRejectedTx(ctx, tx, revisionID)
		if err != nil {
			return err
		}
		if anyRejected {
			return plmerr.State("revision " + strconv.FormatInt(revisionID, 10) + " has an outstanding rejection")
		}
		anyApproved, err := sqlite.AnyApprovedTx(ctx, tx, revisionID)
		if err != nil {
			return err
		}
		if !anyApproved {
			return plmerr.Permission("release_revision", "at least one non-author approval is required")
		}

		display, err := sqlite.DisplayNumberTx(ctx, tx, rev.PartID)
		if err != nil {
			return err
		}
		reviewBranch := types.ReviewBranch(display, rev.Version)

		if err := runner.RunSync(hooks.EventPreRelease, e.Git.Path()); err != nil {
			return plmerr.Backend(plmerr.BackendHook, "pre-release hook", display, err)
		}

		result, err := e.Git.MergeBranch(reviewBranch, gitbackend.MainBranch,
			"implexa: release "+display+" v"+rev.Version, gitbackend.Manual)
		if err != nil {
			return err
		}
		if result.Outcome == gitbackend.ConflictsDetected {
			return plmerr.Conflict("release_revision", result.ConflictPaths)
		}

		ok, err := sqlite.ValidTransitionTx(ctx, tx, string(types.StatusInReview), string(types.StatusReleased))
		if err != nil {
			return err
		}
		if !ok {
			return plmerr.Integrity("workflow has no InReview -> Released transition registered")
		}
		if err := sqlite.SetStatusTx(ctx, tx, revisionID, types.StatusReleased, result.CommitHash); err != nil {
			return err
		}
		if err := sqlite.TouchPartModifiedTx(ctx, tx, rev.PartID); err != nil {
			return err
		}

		return sqlite.RecordTx(ctx, tx, "revision", revisionID, "released", user.Username, result.CommitHash)
	})
	if err != nil {
		return diagnosticsOnIntegrity("release_revision", err)
	}
	if err := runner.RunSync(hooks.EventPostRelease, e.Git.Path()); err != nil {
		// The release already committed; a failed post-release hook is
		// reported but does not undo it.
		diagnostics.Record("hook", "post-release hook failed", err.Error())
	}
	return nil
}

// CreateRevision implements create_revision.
// ManufacturerParts are scoped to the Part row, not the Revision, so
// they are already shared across revisions and need no copy step; only
// Properties are duplicated forward (resolved Open Question, see
// DESIGN.md).
func (e *Engine) CreateRevision(ctx context.Context, user types.User, partID int64) (types.Revision, error) {
	if err := requireMutate(user, "create_revision"); err != nil {
		return types.Revision{}, err
	}
	var revision types.Revision
	err := e.Broker.Transaction(ctx, func(tx *sql.Tx) error {
		latest, err := sqlite.LatestRevisionForPartTx(ctx, tx, partID)
		if err != nil {
			return err
		}
		if latest.Status != types.StatusReleased {
			return plmerr.State("the most recent revision of part " + strconv.FormatInt(partID, 10) + " is not Released")
		}

		nextVersion, err := nextVersionString(latest.Version)
		if err != nil {
			return err
		}

		revisionID, err := sqlite.CreateRevisionTx(ctx, tx, partID, nextVersion, user.Username)
		if err != nil {
			return err
		}
		if err := sqlite.CopyRevisionPropertiesTx(ctx, tx, latest.RevisionID, revisionID); err != nil {
			return err
		}

		display, err := sqlite.DisplayNumberTx(ctx, tx, partID)
		if err != nil {
			return err
		}
		draftBranch := types.DraftBranch(display, nextVersion)
		if err := e.Git.CreateBranch(draftBranch, gitbackend.MainBranch); err != nil {
			return err
		}

		if err := sqlite.RecordTx(ctx, tx, "revision", revisionID, "created", user.Username, draftBranch); err != nil {
			return err
		}

		revision, err = sqlite.GetRevisionInTx(ctx, tx, revisionID)
		return err
	})
	return revision, diagnosticsOnIntegrity("create_revision", err)
}

// MarkObsolete marks a part's most recent Released revision Obsolete.
// Admin-only; touches no branch, since Obsolete is a metadata-only
// terminal state applied to content that is already merged into main.
// A part whose latest revision is already Obsolete is left unchanged
// and the call succeeds, so retries and double-submissions are safe.
func (e *Engine) MarkObsolete(ctx context.Context, user types.User, partID int64) error {
	if user.Role != types.RoleAdmin {
		return plmerr.Permission("mark_obsolete", "only Admin may mark a part obsolete")
	}
	return diagnosticsOnIntegrity("mark_obsolete", e.Broker.Transaction(ctx, func(tx *sql.Tx) error {
		latest, err := sqlite.LatestRevisionForPartTx(ctx, tx, partID)
		if err != nil {
			return err
		}
		if latest.Status == types.StatusObsolete {
			return nil
		}
		if latest.Status != types.StatusReleased {
			return plmerr.State("the most recent revision of part " + strconv.FormatInt(partID, 10) + " is not Released")
		}
		ok, err := sqlite.ValidTransitionTx(ctx, tx, string(types.StatusReleased), string(types.StatusObsolete))
		if err != nil {
			return err
		}
		if !ok {
			return plmerr.Integrity("workflow has no Released -> Obsolete transition registered")
		}
		if err := sqlite.SetStatusTx(ctx, tx, latest.RevisionID, types.StatusObsolete, ""); err != nil {
			return err
		}
		return sqlite.RecordTx(ctx, tx, "part", partID, "marked_obsolete", user.Username, "")
	}))
}

func (e *Engine) categoryTx(ctx context.Context, tx *sql.Tx, code string) (types.Category, error) {
	cat, err := sqlite.CategoryByCodeInTx(ctx, tx, code)
	if err != nil {
		return types.Category{}, err
	}
	return cat, nil
}

func (e *Engine) subcategoryTx(ctx context.Context, tx *sql.Tx, categoryCode, subcategoryCode string) (types.Subcategory, error) {
	return sqlite.SubcategoryByCodeInTx(ctx, tx, categoryCode, subcategoryCode)
}

// nextVersionString increments a monotonic version counter encoded as a
// decimal string.
func nextVersionString(current string) (string, error) {
	n, err := strconv.ParseUint(current, 10, 63)
	if err != nil {
		return "", plmerr.Integrity("revision version " + current + " is not numeric")
	}
	return strconv.FormatUint(n+1, 10), nil
}

// diagnosticsOnIntegrity reports any KindIntegrity error to the rotating
// diagnostic log before returning it, so an operator can see the cross-
// store inconsistency even if the caller only surfaces a generic error
// message.
func diagnosticsOnIntegrity(op string, err error) error {
	if plmerr.Is(err, plmerr.KindIntegrity) {
		diagnostics.Record("integrity", op, err.Error())
	}
	return err
}
