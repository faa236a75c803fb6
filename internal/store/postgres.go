package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
//
// Tables:
//
//	content_items(env, id, kind, chapter_id, title, label, link, position,
//	              unlock_conditions jsonb, updated_at)  PRIMARY KEY (env, id)
//	user_stamps(user_id, stamp_id, collected_at)         PRIMARY KEY (user_id, stamp_id)
//	user_task_completions(user_id, task_id, completed_at) PRIMARY KEY (user_id, task_id)
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const itemColumns = `id, kind, chapter_id, title, label, link, position, unlock_conditions, env, updated_at`

const (
	listItemsQuery = `SELECT ` + itemColumns + ` FROM content_items
WHERE env = $1 AND chapter_id = $2 AND kind = $3
ORDER BY position, id`

	getItemQuery = `SELECT ` + itemColumns + ` FROM content_items
WHERE env = $1 AND id = $2`

	upsertItemQuery = `INSERT INTO content_items
(env, id, kind, chapter_id, title, label, link, position, unlock_conditions, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (env, id) DO UPDATE SET
kind = EXCLUDED.kind, chapter_id = EXCLUDED.chapter_id, title = EXCLUDED.title,
label = EXCLUDED.label, link = EXCLUDED.link, position = EXCLUDED.position,
unlock_conditions = EXCLUDED.unlock_conditions, updated_at = now()`

	deleteItemQuery = `DELETE FROM content_items WHERE env = $1 AND id = $2`

	listStampsQuery = `SELECT stamp_id FROM user_stamps WHERE user_id = $1 ORDER BY collected_at, stamp_id`
	listTasksQuery  = `SELECT task_id FROM user_task_completions WHERE user_id = $1 ORDER BY completed_at, task_id`

	addStampQuery = `INSERT INTO user_stamps (user_id, stamp_id, collected_at) VALUES ($1, $2, now())
ON CONFLICT (user_id, stamp_id) DO NOTHING`
	completeTaskQuery = `INSERT INTO user_task_completions (user_id, task_id, completed_at) VALUES ($1, $2, now())
ON CONFLICT (user_id, task_id) DO NOTHING`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var (
		item       Item
		kind       string
		label      sql.NullString
		link       sql.NullString
		conditions []byte
	)
	if err := row.Scan(&item.ID, &kind, &item.ChapterID, &item.Title, &label, &link,
		&item.Position, &conditions, &item.Env, &item.UpdatedAt); err != nil {
		return Item{}, err
	}
	item.Kind = Kind(kind)
	item.Label = label.String
	item.Link = link.String
	if len(conditions) > 0 {
		item.UnlockConditions = json.RawMessage(conditions)
	}
	return item, nil
}

// ListItems returns the items of one kind in a chapter.
func (p *PostgresStore) ListItems(ctx context.Context, env, chapterID string, kind Kind) ([]Item, error) {
	rows, err := p.db.QueryContext(ctx, listItemsQuery, env, chapterID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// GetItem returns a single item.
func (p *PostgresStore) GetItem(ctx context.Context, env, id string) (*Item, error) {
	item, err := scanItem(p.db.QueryRowContext(ctx, getItemQuery, env, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// UpsertItem creates or replaces an item.
func (p *PostgresStore) UpsertItem(ctx context.Context, params UpsertParams) error {
	var conditions any
	if len(params.UnlockConditions) > 0 {
		conditions = string(params.UnlockConditions)
	}
	_, err := p.db.ExecContext(ctx, upsertItemQuery,
		params.Env, params.ID, string(params.Kind), params.ChapterID, params.Title,
		nullString(params.Label), nullString(params.Link), params.Position, conditions)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// DeleteItem removes an item.
func (p *PostgresStore) DeleteItem(ctx context.Context, env, id string) error {
	if _, err := p.db.ExecContext(ctx, deleteItemQuery, env, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// GetProgress returns the user's stamps and completed tasks.
func (p *PostgresStore) GetProgress(ctx context.Context, userID string) (*Progress, error) {
	stamps, err := p.listStrings(ctx, listStampsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list stamps: %w", err)
	}
	tasks, err := p.listStrings(ctx, listTasksQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return &Progress{UserID: userID, Stamps: stamps, CompletedTasks: tasks}, nil
}

// AddStamp records a collected stamp.
func (p *PostgresStore) AddStamp(ctx context.Context, userID, stampID string) error {
	if _, err := p.db.ExecContext(ctx, addStampQuery, userID, stampID); err != nil {
		return fmt.Errorf("add stamp: %w", err)
	}
	return nil
}

// CompleteTask records a completed task.
func (p *PostgresStore) CompleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := p.db.ExecContext(ctx, completeTaskQuery, userID, taskID); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func (p *PostgresStore) listStrings(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
