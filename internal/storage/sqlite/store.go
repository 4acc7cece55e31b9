// Package sqlite persists history entries and categories in a SQLite
// database through bun.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/category"
	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/model"
	"go.klb.dev/clipq/internal/textfold"
)

var (
	_ history.Records     = (*Store)(nil)
	_ category.Repository = (*Store)(nil)
)

type Store struct {
	db *bun.DB
}

// Open opens (creating if needed) the database at path. ":memory:" works for
// tests.
func Open(ctx context.Context, path string) (*Store, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "open database", err)
	}
	sqldb.SetMaxOpenConns(1)

	if _, err := sqldb.ExecContext(ctx, `PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA busy_timeout=5000;`); err != nil {
		_ = sqldb.Close()
		return nil, apperr.Wrap(apperr.Database, "set pragmas", err)
	}

	s := &Store{db: bun.NewDB(sqldb, sqlitedialect.New())}
	if err := s.migrate(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	for _, m := range []any{(*entryRow)(nil), (*categoryRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return apperr.Wrap(apperr.Database, fmt.Sprintf("create table for %T", m), err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_history_captured ON history_entries(captured_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_history_pinned ON history_entries(is_pinned, captured_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_history_favorite ON history_entries(is_favorite, captured_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_history_pasted ON history_entries(last_pasted_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_categories_name ON categories(name)",
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return apperr.Wrap(apperr.Database, "create index", err)
		}
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, entries ...history.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, len(entries))
	for i, e := range entries {
		rows[i] = toRow(e)
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return classify("insert history entries", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, e history.Entry) error {
	row := toRow(e)
	res, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return classify("update history entry", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "history entry "+e.ID)
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context, f history.Filter) ([]history.Entry, error) {
	var rows []entryRow
	q := s.db.NewSelect().Model(&rows)

	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.Pinned {
		q = q.Where("is_pinned = ?", true)
	}
	if f.Unpinned {
		q = q.Where("is_pinned = ?", false)
	}
	if f.Favorite {
		q = q.Where("is_favorite = ?", true)
	}
	if f.Pasted {
		q = q.Where("last_pasted_at IS NOT NULL")
	}
	if !f.Before.IsZero() {
		q = q.Where("captured_at < ?", f.Before.UnixMilli())
	}
	if f.Search != "" {
		q = q.Where("search_key LIKE ? ESCAPE '"+textfold.LikeEscape+"'", textfold.LikePattern(f.Search))
	}

	if f.Order == history.ByLastPasted {
		q = q.OrderExpr("last_pasted_at DESC")
	}
	q = q.OrderExpr("captured_at DESC").OrderExpr("id ASC")

	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, classify("fetch history entries", err)
	}
	out := make([]history.Entry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.NewDelete().
		Model((*entryRow)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return classify("delete history entries", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*entryRow)(nil)).Count(ctx)
	if err != nil {
		return 0, classify("count history entries", err)
	}
	return n, nil
}

func (s *Store) ListCategories(ctx context.Context, limit int) ([]model.Category, error) {
	var rows []categoryRow
	q := s.db.NewSelect().Model(&rows).OrderExpr("name ASC").OrderExpr("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, classify("list categories", err)
	}
	out := make([]model.Category, len(rows))
	for i, r := range rows {
		out[i] = model.Category{ID: r.ID, Name: r.Name, ColorHex: r.ColorHex}
	}
	return out, nil
}

func (s *Store) InsertCategory(ctx context.Context, c model.Category) error {
	row := categoryRow{ID: c.ID, Name: c.Name, ColorHex: c.ColorHex}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return classify("insert category", err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().
		Model((*categoryRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return classify("delete category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "category "+id)
	}
	return nil
}

func classify(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return apperr.Wrap(apperr.Duplicate, op, err)
	}
	return apperr.Wrap(apperr.Database, op, err)
}
