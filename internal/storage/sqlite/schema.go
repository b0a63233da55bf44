package sqlite

// schema is the declarative table/index/constraint definition for a
// freshly initialized implexa.db. It is applied
// once, then forward migrations in migrations.go carry a database
// forward from any prior schema_version.
const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version      INTEGER PRIMARY KEY,
    applied_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    description  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS part_sequence (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    next_value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    category_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE,
    code        TEXT NOT NULL UNIQUE CHECK (length(code) <= 4),
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS subcategories (
    subcategory_id INTEGER PRIMARY KEY AUTOINCREMENT,
    category_id    INTEGER NOT NULL REFERENCES categories(category_id) ON DELETE CASCADE,
    name           TEXT NOT NULL,
    code           TEXT NOT NULL CHECK (length(code) <= 4),
    description    TEXT NOT NULL DEFAULT '',
    UNIQUE (category_id, name),
    UNIQUE (category_id, code)
);
CREATE INDEX IF NOT EXISTS idx_subcategories_category ON subcategories(category_id);

CREATE TABLE IF NOT EXISTS parts (
    part_id        INTEGER PRIMARY KEY,
    category_id    INTEGER NOT NULL REFERENCES categories(category_id),
    subcategory_id INTEGER NOT NULL REFERENCES subcategories(subcategory_id),
    name           TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    created_date   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    modified_date  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at     DATETIME,
    deleted_by     TEXT NOT NULL DEFAULT '',
    UNIQUE (category_id, subcategory_id, name)
);
CREATE INDEX IF NOT EXISTS idx_parts_category ON parts(category_id);
CREATE INDEX IF NOT EXISTS idx_parts_subcategory ON parts(subcategory_id);

CREATE TABLE IF NOT EXISTS revisions (
    revision_id  INTEGER PRIMARY KEY AUTOINCREMENT,
    part_id      INTEGER NOT NULL REFERENCES parts(part_id) ON DELETE CASCADE,
    version      TEXT NOT NULL,
    status       TEXT NOT NULL CHECK (status IN ('Draft','InReview','Released','Obsolete')),
    created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_by   TEXT NOT NULL DEFAULT '',
    commit_hash  TEXT,
    UNIQUE (part_id, version)
);
CREATE INDEX IF NOT EXISTS idx_revisions_part ON revisions(part_id);
CREATE INDEX IF NOT EXISTS idx_revisions_status ON revisions(status);
CREATE INDEX IF NOT EXISTS idx_revisions_commit_hash ON revisions(commit_hash);

CREATE TABLE IF NOT EXISTS relationships (
    relationship_id INTEGER PRIMARY KEY AUTOINCREMENT,
    parent_part_id  INTEGER NOT NULL REFERENCES parts(part_id) ON DELETE CASCADE,
    child_part_id   INTEGER NOT NULL REFERENCES parts(part_id) ON DELETE CASCADE,
    type            TEXT NOT NULL DEFAULT 'bom',
    quantity        INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
    UNIQUE (parent_part_id, child_part_id, type)
);
CREATE INDEX IF NOT EXISTS idx_relationships_parent ON relationships(parent_part_id);
CREATE INDEX IF NOT EXISTS idx_relationships_child ON relationships(child_part_id);

CREATE TABLE IF NOT EXISTS properties (
    property_id INTEGER PRIMARY KEY AUTOINCREMENT,
    part_id     INTEGER REFERENCES parts(part_id) ON DELETE CASCADE,
    revision_id INTEGER REFERENCES revisions(revision_id) ON DELETE CASCADE,
    key         TEXT NOT NULL,
    value       TEXT NOT NULL DEFAULT '',
    type        TEXT NOT NULL DEFAULT 'string',
    CHECK ((part_id IS NULL) <> (revision_id IS NULL))
);
-- NULLs compare distinct in a plain UNIQUE, so key uniqueness per owner
-- needs one partial index per owner column.
CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_part_key ON properties(part_id, key) WHERE part_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_revision_key ON properties(revision_id, key) WHERE revision_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_properties_key ON properties(key);

CREATE TABLE IF NOT EXISTS manufacturer_parts (
    mpn_id       INTEGER PRIMARY KEY AUTOINCREMENT,
    part_id      INTEGER NOT NULL REFERENCES parts(part_id) ON DELETE CASCADE,
    manufacturer TEXT NOT NULL,
    mpn          TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'Active' CHECK (status IN ('Active','Preferred','Alternate','Obsolete')),
    UNIQUE (manufacturer, mpn)
);
CREATE INDEX IF NOT EXISTS idx_mpn_part ON manufacturer_parts(part_id);
CREATE INDEX IF NOT EXISTS idx_mpn_manufacturer ON manufacturer_parts(manufacturer);
CREATE INDEX IF NOT EXISTS idx_mpn_status ON manufacturer_parts(status);

CREATE TABLE IF NOT EXISTS approvals (
    approval_id INTEGER PRIMARY KEY AUTOINCREMENT,
    revision_id INTEGER NOT NULL REFERENCES revisions(revision_id) ON DELETE CASCADE,
    approver    TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending','Approved','Rejected')),
    date        DATETIME,
    comments    TEXT NOT NULL DEFAULT '',
    UNIQUE (revision_id, approver)
);
CREATE INDEX IF NOT EXISTS idx_approvals_revision ON approvals(revision_id);

CREATE TABLE IF NOT EXISTS files (
    file_id     INTEGER PRIMARY KEY AUTOINCREMENT,
    part_id     INTEGER REFERENCES parts(part_id) ON DELETE CASCADE,
    revision_id INTEGER REFERENCES revisions(revision_id) ON DELETE CASCADE,
    path        TEXT NOT NULL,
    type        TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    CHECK ((part_id IS NULL) <> (revision_id IS NULL))
);
CREATE INDEX IF NOT EXISTS idx_files_part ON files(part_id);
CREATE INDEX IF NOT EXISTS idx_files_revision ON files(revision_id);

CREATE TABLE IF NOT EXISTS workflows (
    workflow_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE,
    is_default  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS workflow_states (
    state_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    workflow_id INTEGER NOT NULL REFERENCES workflows(workflow_id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    UNIQUE (workflow_id, name)
);
CREATE INDEX IF NOT EXISTS idx_workflow_states_workflow ON workflow_states(workflow_id);

CREATE TABLE IF NOT EXISTS workflow_transitions (
    transition_id INTEGER PRIMARY KEY AUTOINCREMENT,
    workflow_id   INTEGER NOT NULL REFERENCES workflows(workflow_id) ON DELETE CASCADE,
    from_state    TEXT NOT NULL,
    to_state      TEXT NOT NULL,
    UNIQUE (workflow_id, from_state, to_state)
);
CREATE INDEX IF NOT EXISTS idx_workflow_transitions_workflow ON workflow_transitions(workflow_id);

-- Audit trail: one row per Lifecycle Engine transition.
CREATE TABLE IF NOT EXISTS events (
    event_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL,
    entity_id   INTEGER NOT NULL,
    event_type  TEXT NOT NULL,
    actor       TEXT NOT NULL DEFAULT '',
    at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    detail      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
`
