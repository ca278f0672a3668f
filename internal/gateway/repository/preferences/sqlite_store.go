package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps preferences in a single sqlite file. ":memory:" works
// for tests; the pool is pinned to one connection so it sees one database.
type SQLiteStore struct {
	db  *sqlx.DB
	seq sequence

	schemaOnce sync.Once
	schemaErr  error
}

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			s.schemaErr = err
			return
		}
		for _, stmt := range schemaDDL {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				s.schemaErr = fmt.Errorf("create schema: %w", err)
				return
			}
		}
	})
	return s.schemaErr
}

func (s *SQLiteStore) AddToSet(ctx context.Context, owner string, kind SetKind, storyID int) error {
	if !kind.Valid() {
		return ErrInvalidSet
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO story_sets (owner, kind, story_id, position) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		owner, string(kind), storyID, s.seq.next())
	return err
}

func (s *SQLiteStore) RemoveFromSet(ctx context.Context, owner string, kind SetKind, storyID int) error {
	if !kind.Valid() {
		return ErrInvalidSet
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM story_sets WHERE owner = ? AND kind = ? AND story_id = ?`,
		owner, string(kind), storyID)
	return err
}

func (s *SQLiteStore) Set(ctx context.Context, owner string, kind SetKind) ([]int, error) {
	if !kind.Valid() {
		return nil, ErrInvalidSet
	}
	ids := []int{}
	err := s.db.SelectContext(ctx, &ids,
		`SELECT story_id FROM story_sets WHERE owner = ? AND kind = ? ORDER BY position`,
		owner, string(kind))
	return ids, err
}

func (s *SQLiteStore) CreateList(ctx context.Context, list ReadingList) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO reading_lists (id, owner, name, created_at) VALUES (:id, :owner, :name, :created_at)`,
		list)
	return err
}

func (s *SQLiteStore) DeleteList(ctx context.Context, owner, listID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reading_lists WHERE id = ? AND owner = ?`, listID, owner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListNotFound
	}
	return nil
}

func (s *SQLiteStore) GetList(ctx context.Context, owner, listID string) (ReadingList, error) {
	var l ReadingList
	err := s.db.GetContext(ctx, &l,
		`SELECT id, owner, name, created_at FROM reading_lists WHERE id = ? AND owner = ?`, listID, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ReadingList{}, ErrListNotFound
	}
	return l, err
}

func (s *SQLiteStore) Lists(ctx context.Context, owner string) ([]ReadingList, error) {
	out := []ReadingList{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, owner, name, created_at FROM reading_lists WHERE owner = ? ORDER BY created_at, id`, owner)
	return out, err
}

func (s *SQLiteStore) AddToList(ctx context.Context, owner, listID string, storyID int) error {
	if _, err := s.GetList(ctx, owner, listID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reading_list_items (list_id, story_id, position) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		listID, storyID, s.seq.next())
	return err
}

func (s *SQLiteStore) RemoveFromList(ctx context.Context, owner, listID string, storyID int) error {
	if _, err := s.GetList(ctx, owner, listID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM reading_list_items WHERE list_id = ? AND story_id = ?`, listID, storyID)
	return err
}

func (s *SQLiteStore) ListItems(ctx context.Context, owner, listID string) ([]int, error) {
	if _, err := s.GetList(ctx, owner, listID); err != nil {
		return nil, err
	}
	ids := []int{}
	err := s.db.SelectContext(ctx, &ids,
		`SELECT story_id FROM reading_list_items WHERE list_id = ? ORDER BY position`, listID)
	return ids, err
}
