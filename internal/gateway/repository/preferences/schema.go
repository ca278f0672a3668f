package preferences

// schemaDDL is portable between sqlite and Postgres.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS story_sets (
    owner TEXT NOT NULL,
    kind TEXT NOT NULL,
    story_id BIGINT NOT NULL,
    position BIGINT NOT NULL,
    PRIMARY KEY (owner, kind, story_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_story_sets_order ON story_sets(owner, kind, position)`,
	`CREATE TABLE IF NOT EXISTS reading_lists (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_reading_lists_owner ON reading_lists(owner, created_at)`,
	`CREATE TABLE IF NOT EXISTS reading_list_items (
    list_id TEXT NOT NULL REFERENCES reading_lists(id) ON DELETE CASCADE,
    story_id BIGINT NOT NULL,
    position BIGINT NOT NULL,
    PRIMARY KEY (list_id, story_id)
)`,
}
