package store

import "github.com/reddam/jobscout/internal/model"

// Ensure NopStore implements model.Store.
var _ model.Store = (*NopStore)(nil)

// NopStore discards all writes and returns nothing. Used by check (dry-run)
// mode so a trial pass never touches the database.
type NopStore struct{}

// NewNopStore returns a NopStore.
func NewNopStore() *NopStore {
	return &NopStore{}
}

// Upsert pretends every record is new and persists nothing.
func (n *NopStore) Upsert(model.Job) (bool, error) { return true, nil }

// Query returns no records.
func (n *NopStore) Query(model.QueryFilter) ([]model.Job, error) { return nil, nil }

// Unnotified returns no records.
func (n *NopStore) Unnotified(int, int) ([]model.Job, error) { return nil, nil }

// MarkNotified is a no-op.
func (n *NopStore) MarkNotified([]string) error { return nil }

// UpdateUserState is a no-op.
func (n *NopStore) UpdateUserState(int64, model.UserPatch) error { return nil }

// Close is a no-op.
func (n *NopStore) Close() error { return nil }
