package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a content item does not exist.
var ErrNotFound = errors.New("item not found")

// Store defines content and progress persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// ListItems returns the items of one kind in a chapter, ordered by position.
	// Returns an empty slice if none exist.
	ListItems(ctx context.Context, env, chapterID string, kind Kind) ([]Item, error)

	// GetItem returns a single item or ErrNotFound.
	GetItem(ctx context.Context, env, id string) (*Item, error)

	// UpsertItem creates or replaces an item identified by (env, id).
	UpsertItem(ctx context.Context, params UpsertParams) error

	// DeleteItem removes an item. Deleting a missing item is not an error.
	DeleteItem(ctx context.Context, env, id string) error

	// GetProgress returns the stamps and completed tasks of a user.
	// Unknown users have empty progress.
	GetProgress(ctx context.Context, userID string) (*Progress, error)

	// AddStamp records a collected stamp. Collecting twice is a no-op.
	AddStamp(ctx context.Context, userID, stampID string) error

	// CompleteTask records a completed task. Completing twice is a no-op.
	CompleteTask(ctx context.Context, userID, taskID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Kind distinguishes the two kinds of gated content.
type Kind string

const (
	KindButton     Kind = "button"
	KindSubChapter Kind = "sub-chapter"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindButton || k == KindSubChapter
}

// Item is a custom button or a sub-chapter. UnlockConditions holds the raw
// condition list exactly as the admin editor stored it.
type Item struct {
	ID               string          `json:"id"`
	Kind             Kind            `json:"kind"`
	ChapterID        string          `json:"chapterId"`
	Title            string          `json:"title"`
	Label            string          `json:"label,omitempty"`
	Link             string          `json:"link,omitempty"`
	Position         int             `json:"position"`
	UnlockConditions json.RawMessage `json:"unlockConditions,omitempty"`
	Env              string          `json:"env"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// UpsertParams contains the parameters for upserting an item.
type UpsertParams struct {
	ID               string          `json:"id"`
	Kind             Kind            `json:"kind"`
	ChapterID        string          `json:"chapterId"`
	Title            string          `json:"title"`
	Label            string          `json:"label,omitempty"`
	Link             string          `json:"link,omitempty"`
	Position         int             `json:"position"`
	UnlockConditions json.RawMessage `json:"unlockConditions,omitempty"`
	Env              string          `json:"env"`
}

// Progress is a user's memory wallet: collected stamps and completed tasks.
type Progress struct {
	UserID         string   `json:"userId"`
	Stamps         []string `json:"stamps"`
	CompletedTasks []string `json:"completedTasks"`
}
