// Package types holds the shared entity structs and enums that flow
// between the metadata store, the lifecycle engine, and the command
// boundary. Nothing in this package talks to a database or a
// repository; it is pure data.
package types

import (
	"strconv"
	"time"
)

// Role is the set of permissions a User carries. Capabilities are
// derived from Role, never checked by literal string
// comparison outside this package's helpers.
type Role string

const (
	RoleDesigner Role = "Designer"
	RoleViewer   Role = "Viewer"
	RoleAdmin    Role = "Admin"
)

// User is the authenticated actor behind every Lifecycle Engine call.
type User struct {
	Username string
	Role     Role
}

// MayMutate reports whether this role can perform any non-Viewer
// lifecycle operation (create_part, submit_for_review, approve, reject,
// release_revision, create_revision). mark_obsolete additionally
// requires Admin and is checked separately.
func (u User) MayMutate() bool {
	return u.Role != RoleViewer
}

// Category is a top-level part classification, e.g. EL (Electronic).
type Category struct {
	CategoryID  int64
	Name        string
	Code        string // unique, <=4 chars
	Description string
}

// Subcategory refines a Category, e.g. RES (Resistor) under EL.
type Subcategory struct {
	SubcategoryID int64
	CategoryID    int64
	Name          string
	Code          string
	Description   string
}

// Part is the catalog entity identified by a stable integer ID. The
// human-facing display number is never stored on Part; it is derived on
// read by the part-number projection.
type Part struct {
	PartID        int64
	CategoryID    int64
	SubcategoryID int64
	Category      string // category code at time of read, joined in
	Subcategory   string // subcategory code at time of read, joined in
	Name          string
	Description   string
	CreatedDate   time.Time
	ModifiedDate  time.Time
	DeletedAt     *time.Time
	DeletedBy     string
}

// DisplayPartNumber projects {category}-{subcategory}-{part_id}.
func (p Part) DisplayPartNumber() string {
	return p.Category + "-" + p.Subcategory + "-" + strconv.FormatInt(p.PartID, 10)
}

// RevisionStatus is the lifecycle state machine's state.
type RevisionStatus string

const (
	StatusDraft     RevisionStatus = "Draft"
	StatusInReview  RevisionStatus = "InReview"
	StatusReleased  RevisionStatus = "Released"
	StatusObsolete  RevisionStatus = "Obsolete"
)

// Revision is a versioned snapshot of a Part, bound to a Git branch and,
// once non-Draft, a commit.
type Revision struct {
	RevisionID  int64
	PartID      int64
	Version     string
	Status      RevisionStatus
	CreatedDate time.Time
	CreatedBy   string
	CommitHash  string // empty until the first commit on the revision's branch
}

// DraftBranch returns the branch name for this revision while it is a
// Draft.
func DraftBranch(displayPartNumber, version string) string {
	return "part/" + displayPartNumber + "/v" + version + "/draft"
}

// ReviewBranch returns the branch name for this revision while InReview.
func ReviewBranch(displayPartNumber, version string) string {
	return "part/" + displayPartNumber + "/v" + version + "/review"
}

// RelationshipType enumerates the BOM edge kinds between two Parts.
type RelationshipType string

const (
	RelationshipBOM       RelationshipType = "bom"
	RelationshipReference RelationshipType = "reference"
	RelationshipAlternate RelationshipType = "alternate"
)

// Relationship is a parent/child BOM edge between two Parts.
type Relationship struct {
	RelationshipID int64
	ParentPartID   int64
	ChildPartID    int64
	Type           RelationshipType
	Quantity       int
}

// PropertyType enumerates the value kinds a Property may carry.
type PropertyType string

const (
	PropertyString  PropertyType = "string"
	PropertyNumber  PropertyType = "number"
	PropertyBoolean PropertyType = "boolean"
	PropertyDate    PropertyType = "date"
)

// Property is a key/value pair attached to exactly one of a Part or a
// Revision (never both, never neither; enforced at the store layer).
type Property struct {
	PropertyID int64
	PartID     *int64
	RevisionID *int64
	Key        string
	Value      string
	Type       PropertyType
}

// MPNStatus is the lifecycle state of a manufacturer cross-reference.
type MPNStatus string

const (
	MPNActive    MPNStatus = "Active"
	MPNPreferred MPNStatus = "Preferred"
	MPNAlternate MPNStatus = "Alternate"
	MPNObsolete  MPNStatus = "Obsolete"
)

// ManufacturerPart cross-references a Part to a real-world manufacturer
// part number.
type ManufacturerPart struct {
	MPNID        int64
	PartID       int64
	Manufacturer string
	MPN          string
	Description  string
	Status       MPNStatus
}

// ApprovalStatus is the reviewer's verdict on a Revision.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

// Approval records one reviewer's verdict on one Revision.
type Approval struct {
	ApprovalID int64
	RevisionID int64
	Approver   string
	Status     ApprovalStatus
	Date       *time.Time
	Comments   string
}

// File attaches a repo-relative path to exactly one of a Part or a
// Revision.
type File struct {
	FileID      int64
	PartID      *int64
	RevisionID  *int64
	Path        string
	Type        string
	Description string
}

// Workflow, WorkflowState, and WorkflowTransition are the table-driven
// state machine backing the Lifecycle Engine's transition validation.
type Workflow struct {
	WorkflowID int64
	Name       string
	IsDefault  bool
}

type WorkflowState struct {
	StateID    int64
	WorkflowID int64
	Name       string
}

type WorkflowTransition struct {
	TransitionID int64
	WorkflowID   int64
	FromState    string
	ToState      string
}

// SchemaVersion is the single source of truth for migration level.
type SchemaVersion struct {
	Version     int
	AppliedDate time.Time
	Description string
}
