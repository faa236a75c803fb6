package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses maps guarded by an RWMutex. Suitable for development, tests and
// single-instance deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]Item     // env/id -> item
	stamps  map[string][]string // userID -> stamp ids in collection order
	tasks   map[string][]string // userID -> task ids in completion order
	nowFunc func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:   make(map[string]Item),
		stamps:  make(map[string][]string),
		tasks:   make(map[string][]string),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func itemKey(env, id string) string { return env + "/" + id }

// ListItems returns the items of one kind in a chapter, ordered by position then id.
func (m *MemoryStore) ListItems(ctx context.Context, env, chapterID string, kind Kind) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Item, 0)
	for _, item := range m.items {
		if item.Env == env && item.ChapterID == chapterID && item.Kind == kind {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetItem returns a single item.
func (m *MemoryStore) GetItem(ctx context.Context, env, id string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[itemKey(env, id)]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

// UpsertItem creates or replaces an item.
func (m *MemoryStore) UpsertItem(ctx context.Context, params UpsertParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[itemKey(params.Env, params.ID)] = Item{
		ID:               params.ID,
		Kind:             params.Kind,
		ChapterID:        params.ChapterID,
		Title:            params.Title,
		Label:            params.Label,
		Link:             params.Link,
		Position:         params.Position,
		UnlockConditions: slices.Clone(params.UnlockConditions),
		Env:              params.Env,
		UpdatedAt:        m.nowFunc(),
	}
	return nil
}

// DeleteItem removes an item. Idempotent.
func (m *MemoryStore) DeleteItem(ctx context.Context, env, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, itemKey(env, id))
	return nil
}

// GetProgress returns a copy of the user's progress.
func (m *MemoryStore) GetProgress(ctx context.Context, userID string) (*Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Progress{
		UserID:         userID,
		Stamps:         append([]string{}, m.stamps[userID]...),
		CompletedTasks: append([]string{}, m.tasks[userID]...),
	}, nil
}

// AddStamp records a collected stamp.
func (m *MemoryStore) AddStamp(ctx context.Context, userID, stampID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(m.stamps[userID], stampID) {
		m.stamps[userID] = append(m.stamps[userID], stampID)
	}
	return nil
}

// CompleteTask records a completed task.
func (m *MemoryStore) CompleteTask(ctx context.Context, userID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(m.tasks[userID], taskID) {
		m.tasks[userID] = append(m.tasks[userID], taskID)
	}
	return nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
