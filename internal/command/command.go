// Package command implements the command boundary: a flat set of
// named operations, each a pure function of (request, state) ->
// response, mapping one-to-one onto a Lifecycle Engine method or a
// direct Entity Manager query.
package command

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/registry"
	"github.com/implexa/implexa/internal/storage/sqlite"
	"github.com/implexa/implexa/internal/types"
)

// Operation names every Command Boundary entry point.
const (
	OpCreateRepository = "create_repository"
	OpOpenRepository   = "open_repository"
	OpCloseRepository  = "close_repository"

	OpCreatePart      = "create_part"
	OpSubmitForReview = "submit_for_review"
	OpApprove         = "approve"
	OpReject          = "reject"
	OpReleaseRevision = "release_revision"
	OpCreateRevision  = "create_revision"
	OpMarkObsolete    = "mark_obsolete"

	OpGetPart      = "get_part"
	OpListParts    = "list_parts"
	OpGetRevisions = "get_revisions"

	OpCreateRelationship = "create_relationship"
	OpDeleteRelationship = "delete_relationship"

	OpSetProperty    = "set_property"
	OpDeleteProperty = "delete_property"
	OpListProperties = "list_properties"

	OpUpsertManufacturerPart = "upsert_manufacturer_part"
	OpListManufacturerParts  = "list_manufacturer_parts"

	OpAttachFile = "attach_file"
	OpDetachFile = "detach_file"
	OpListFiles  = "list_files"

	OpListCategories    = "list_categories"
	OpListSubcategories = "list_subcategories"

	OpDoctor = "doctor"
)

// ErrorPayload is the user-visible error shape every operation maps
// internal errors onto.
type ErrorPayload struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// ToErrorPayload converts any error into the Command Boundary's
// user-visible shape. A *plmerr.Error's Kind becomes the code; any other
// error becomes a generic "internal" code so Entity Manager or Go
// runtime errors never leak unclassified past this boundary.
func ToErrorPayload(err error) ErrorPayload {
	if err == nil {
		return ErrorPayload{}
	}
	kind := plmerr.KindOf(err)
	if kind == "" {
		return ErrorPayload{Code: "internal", Message: err.Error()}
	}
	payload := ErrorPayload{Code: string(kind), Message: err.Error()}
	var perr *plmerr.Error
	if asPlmErr(err, &perr) {
		payload.Details = append(payload.Details, perr.ConflictPaths...)
		payload.Details = append(payload.Details, perr.PerformedMutations...)
	}
	return payload
}

func asPlmErr(err error, target **plmerr.Error) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*plmerr.Error); ok {
			*target = e
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Boundary holds the Registry every operation dispatches against. It
// never holds a database scope of its own between calls.
type Boundary struct {
	Registry *registry.Registry
}

func New(r *registry.Registry) *Boundary {
	return &Boundary{Registry: r}
}

func (b *Boundary) requireOpenRepository() error {
	if !b.Registry.IsOpen() {
		return plmerr.State("no repository is open; call open_repository or create_repository first")
	}
	return nil
}

// CreateRepository handles OpCreateRepository.
func (b *Boundary) CreateRepository(ctx context.Context, path, template string) error {
	return b.Registry.CreateRepository(ctx, path, template)
}

// OpenRepository handles OpOpenRepository.
func (b *Boundary) OpenRepository(ctx context.Context, path string) error {
	return b.Registry.OpenRepository(ctx, path)
}

// CloseRepository handles OpCloseRepository.
func (b *Boundary) CloseRepository(context.Context) error {
	return b.Registry.CloseRepository()
}

// CreatePart handles OpCreatePart.
func (b *Boundary) CreatePart(ctx context.Context, user types.User, category, subcategory, name, description string) (types.Part, types.Revision, error) {
	if err := b.requireOpenRepository(); err != nil {
		return types.Part{}, types.Revision{}, err
	}
	return b.Registry.Engine().CreatePart(ctx, user, category, subcategory, name, description)
}

// SubmitForReview handles OpSubmitForReview.
func (b *Boundary) SubmitForReview(ctx context.Context, user types.User, revisionID int64, reviewers []string) error {
	if err := b.requireOpenRepository(); err != nil {
		return err
	}
	return b.Registry.Engine().SubmitForReview(ctx, user, revisionID, reviewers)
}

// Approve handles OpApprove.
func (b *Boundary) Approve(ctx context.Context, user types.User, revisionID int64, comments string) error {
	if err := b.requireOpenRepository(); err != nil {
		return err
	}
	return b.Registry.Engine().Approve(ctx, user, revisionID, comments)
}

// Reject handles OpReject.
func (b *Boundary) Reject(ctx context.Context, user types.User, revisionID int64, comments string) error {
	if err := b.requireOpenRepository(); err != nil {
		return err
	}
	return b.Registry.Engine().Reject(ctx, user, revisionID, comments)
}

// ReleaseRevision handles OpReleaseRevision.
func (b *Boundary) ReleaseRevision(ctx context.Context, user types.User, revisionID int64) error {
	if err := b.requireOpenRepository(); err != nil {
		return err
	}
	return b.Registry.Engine().ReleaseRevision(ctx, user, revisionID)
}

// CreateRevision handles OpCreateRevision.
func (b *Boundary) CreateRevision(ctx context.Context, user types.User, partID int64) (types.Revision, error) {
	if err := b.requireOpenRepository(); err != nil {
		return types.Revision{}, err
	}
	return b.Registry.Engine().CreateRevision(ctx, user, partID)
}

// MarkObsolete handles OpMarkObsolete.
func (b *Boundary) MarkObsolete(ctx context.Context, user types.User, partID int64) error {
	if err := b.requireOpenRepository(); err != nil {
		return err
	}
	return b.Registry.Engine().MarkObsolete(ctx, user, partID)
}

// GetPart handles OpGetPart.
func (b *Boundary) GetPart(ctx context.Context, partID int64) (types.Part, error) {
	return b.Registry.Engine().Parts.Get(ctx, partID)
}

// ListParts handles OpListParts.
func (b *Boundary) ListParts(ctx context.Context, category, term string) ([]types.Part, error) {
	return b.Registry.Engine().Parts.List(ctx, category, term)
}

// GetRevisions handles OpGetRevisions.
func (b *Boundary) GetRevisions(ctx context.Context, partID int64) ([]types.Revision, error) {
	return b.Registry.Engine().Revisions.ListForPart(ctx, partID)
}

// ListCategories handles OpListCategories. Works against the in-memory
// bootstrap store before any repository is open, since categories are
// seeded with the schema.
func (b *Boundary) ListCategories(ctx context.Context) ([]types.Category, error) {
	return sqlite.NewCategoryStore(b.Registry.Engine().Broker).List(ctx)
}

// ListSubcategories handles OpListSubcategories.
func (b *Boundary) ListSubcategories(ctx context.Context, categoryCode string) ([]types.Subcategory, error) {
	return sqlite.NewCategoryStore(b.Registry.Engine().Broker).SubcategoriesOf(ctx, categoryCode)
}

// Doctor handles OpDoctor: read-only cross-store consistency checks,
// returning one human-readable finding per violated invariant.
func (b *Boundary) Doctor(ctx context.Context) ([]string, error) {
	return b.Registry.Doctor(ctx)
}

// CreateRelationship handles OpCreateRelationship. The obsolete-child
// rule is enforced inside the Relationship manager's write scope.
func (b *Boundary) CreateRelationship(ctx context.Context, rel types.Relationship) (int64, error) {
	return relationshipStore(b).Add(ctx, rel)
}

// DeleteRelationship handles OpDeleteRelationship.
func (b *Boundary) DeleteRelationship(ctx context.Context, relationshipID int64) error {
	return relationshipStore(b).Remove(ctx, relationshipID)
}

// SetProperty handles OpSetProperty.
func (b *Boundary) SetProperty(ctx context.Context, p types.Property) (int64, error) {
	return propertyStore(b).Set(ctx, p)
}

// ListProperties handles OpListProperties for either owner kind.
func (b *Boundary) ListProperties(ctx context.Context, partID, revisionID *int64) ([]types.Property, error) {
	if partID != nil {
		return propertyStore(b).ListForPart(ctx, *partID)
	}
	if revisionID != nil {
		return propertyStore(b).ListForRevision(ctx, *revisionID)
	}
	return nil, plmerr.InvalidInput("owner", "list_properties requires a part_id or revision_id")
}

// DeleteProperty handles OpDeleteProperty.
func (b *Boundary) DeleteProperty(ctx context.Context, partID, revisionID *int64, key string) error {
	return propertyStore(b).Delete(ctx, partID, revisionID, key)
}

// UpsertManufacturerPart handles OpUpsertManufacturerPart.
func (b *Boundary) UpsertManufacturerPart(ctx context.Context, mp types.ManufacturerPart) (int64, error) {
	return manufacturerPartStore(b).Upsert(ctx, mp)
}

// ListManufacturerParts handles OpListManufacturerParts.
func (b *Boundary) ListManufacturerParts(ctx context.Context, partID int64) ([]types.ManufacturerPart, error) {
	return manufacturerPartStore(b).ListForPart(ctx, partID)
}

// AttachFile handles OpAttachFile.
func (b *Boundary) AttachFile(ctx context.Context, f types.File) (int64, error) {
	if err := b.requirePathInRepository(f.Path); err != nil {
		return 0, err
	}
	return fileStore(b).Attach(ctx, f)
}

// requirePathInRepository rejects a file path that escapes the open
// repository's working tree, whether by a literal ".." segment or by
// resolving outside the root once cleaned.
func (b *Boundary) requirePathInRepository(path string) error {
	if path == "" {
		return plmerr.InvalidInput("path", "path must not be empty")
	}
	if filepath.IsAbs(path) {
		return plmerr.InvalidInput("path", "path must be relative to the repository root")
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return plmerr.InvalidInput("path", "path must not escape the repository root")
	}
	root := b.Registry.Path()
	if root == "" {
		return nil
	}
	joined := filepath.Clean(filepath.Join(root, clean))
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return plmerr.InvalidInput("path", "path must not escape the repository root")
	}
	return nil
}

// DetachFile handles OpDetachFile.
func (b *Boundary) DetachFile(ctx context.Context, fileID int64) error {
	return fileStore(b).Detach(ctx, fileID)
}

// ListFiles handles OpListFiles for either owner kind.
func (b *Boundary) ListFiles(ctx context.Context, partID, revisionID *int64) ([]types.File, error) {
	if partID != nil {
		return fileStore(b).ListForPart(ctx, *partID)
	}
	if revisionID != nil {
		return fileStore(b).ListForRevision(ctx, *revisionID)
	}
	return nil, plmerr.InvalidInput("owner", "list_files requires a part_id or revision_id")
}

func relationshipStore(b *Boundary) *sqlite.RelationshipStore {
	return sqlite.NewRelationshipStore(b.Registry.Engine().Broker)
}

func propertyStore(b *Boundary) *sqlite.PropertyStore {
	return sqlite.NewPropertyStore(b.Registry.Engine().Broker)
}

func manufacturerPartStore(b *Boundary) *sqlite.ManufacturerPartStore {
	return sqlite.NewManufacturerPartStore(b.Registry.Engine().Broker)
}

func fileStore(b *Boundary) *sqlite.FileStore {
	return sqlite.NewFileStore(b.Registry.Engine().Broker)
}
