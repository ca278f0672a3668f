package preferences

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// PostgresStore builds its statements with ent's dialect-aware SQL builder
// and runs them on a database/sql pool opened with the pgx driver.
type PostgresStore struct {
	db  *sql.DB
	seq sequence

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		for _, stmt := range schemaDDL {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				s.schemaErr = fmt.Errorf("create schema: %w", err)
				return
			}
		}
	})
	return s.schemaErr
}

func (s *PostgresStore) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query, args := q.Query()
	return s.db.ExecContext(ctx, query, args...)
}

func (s *PostgresStore) queryIDs(ctx context.Context, q entsql.Querier) ([]int, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query, args := q.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func setPredicate(owner string, kind SetKind) *entsql.Predicate {
	return entsql.And(entsql.EQ("owner", owner), entsql.EQ("kind", string(kind)))
}

func (s *PostgresStore) AddToSet(ctx context.Context, owner string, kind SetKind, storyID int) error {
	if !kind.Valid() {
		return ErrInvalidSet
	}
	_, err := s.exec(ctx, s.builder().Insert("story_sets").
		Columns("owner", "kind", "story_id", "position").
		Values(owner, string(kind), storyID, s.seq.next()).
		OnConflict(entsql.ConflictColumns("owner", "kind", "story_id"), entsql.DoNothing()))
	return err
}

func (s *PostgresStore) RemoveFromSet(ctx context.Context, owner string, kind SetKind, storyID int) error {
	if !kind.Valid() {
		return ErrInvalidSet
	}
	_, err := s.exec(ctx, s.builder().Delete("story_sets").
		Where(entsql.And(setPredicate(owner, kind), entsql.EQ("story_id", storyID))))
	return err
}

func (s *PostgresStore) Set(ctx context.Context, owner string, kind SetKind) ([]int, error) {
	if !kind.Valid() {
		return nil, ErrInvalidSet
	}
	return s.queryIDs(ctx, s.builder().Select("story_id").
		From(entsql.Table("story_sets")).
		Where(setPredicate(owner, kind)).
		OrderBy("position"))
}

func (s *PostgresStore) CreateList(ctx context.Context, list ReadingList) error {
	_, err := s.exec(ctx, s.builder().Insert("reading_lists").
		Columns("id", "owner", "name", "created_at").
		Values(list.ID, list.Owner, list.Name, list.CreatedAt))
	return err
}

func (s *PostgresStore) DeleteList(ctx context.Context, owner, listID string) error {
	res, err := s.exec(ctx, s.builder().Delete("reading_lists").
		Where(entsql.And(entsql.EQ("id", listID), entsql.EQ("owner", owner))))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListNotFound
	}
	return nil
}

func (s *PostgresStore) listSelector() *entsql.Selector {
	return s.builder().Select("id", "owner", "name", "created_at").From(entsql.Table("reading_lists"))
}

func (s *PostgresStore) GetList(ctx context.Context, owner, listID string) (ReadingList, error) {
	lists, err := s.queryLists(ctx, s.listSelector().
		Where(entsql.And(entsql.EQ("id", listID), entsql.EQ("owner", owner))))
	if err != nil {
		return ReadingList{}, err
	}
	if len(lists) == 0 {
		return ReadingList{}, ErrListNotFound
	}
	return lists[0], nil
}

func (s *PostgresStore) Lists(ctx context.Context, owner string) ([]ReadingList, error) {
	return s.queryLists(ctx, s.listSelector().Where(entsql.EQ("owner", owner)).OrderBy("created_at", "id"))
}

func (s *PostgresStore) queryLists(ctx context.Context, sel *entsql.Selector) ([]ReadingList, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ReadingList{}
	for rows.Next() {
		var l ReadingList
		if err := rows.Scan(&l.ID, &l.Owner, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddToList(ctx context.Context, owner, listID string, storyID int) error {
	if _, err := s.GetList(ctx, owner, listID); err != nil {
		return err
	}
	_, err := s.exec(ctx, s.builder().Insert("reading_list_items").
		Columns("list_id", "story_id", "position").
		Values(listID, storyID, s.seq.next()).
		OnConflict(entsql.ConflictColumns("list_id", "story_id"), entsql.DoNothing()))
	return err
}

func (s *PostgresStore) RemoveFromList(ctx context.Context, owner, listID string, storyID int) error {
	if _, err := s.GetList(ctx, owner, listID); err != nil {
		return err
	}
	_, err := s.exec(ctx, s.builder().Delete("reading_list_items").
		Where(entsql.And(entsql.EQ("list_id", listID), entsql.EQ("story_id", storyID))))
	return err
}

func (s *PostgresStore) ListItems(ctx context.Context, owner, listID string) ([]int, error) {
	if _, err := s.GetList(ctx, owner, listID); err != nil {
		return nil, err
	}
	return s.queryIDs(ctx, s.builder().Select("story_id").
		From(entsql.Table("reading_list_items")).
		Where(entsql.EQ("list_id", listID)).
		OrderBy("position"))
}
