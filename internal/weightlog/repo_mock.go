package weightlog

import (
	"context"
	"sort"
	"sync"
)

type repoMock struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]Entry
}

func newRepoMock() *repoMock {
	return &repoMock{
		nextID:  1,
		entries: make(map[int]Entry),
	}
}

func (r *repoMock) Add(_ context.Context, entry Entry) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.nextID
	r.nextID++
	r.entries[entry.ID] = entry
	return &entry, nil
}

func (r *repoMock) Get(_ context.Context, userID, id int) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return nil, ErrEntryNotFound
	}
	return &entry, nil
}

func (r *repoMock) ListAll(_ context.Context, params EntryParams) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, 0)
	for _, entry := range r.entries {
		if entry.UserID != params.UserID {
			continue
		}
		if params.From != nil && entry.Timestamp.Before(*params.From) {
			continue
		}
		if params.To != nil && entry.Timestamp.After(*params.To) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (r *repoMock) Update(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[entry.ID]
	if !ok || existing.UserID != entry.UserID {
		return ErrEntryNotFound
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *repoMock) Delete(_ context.Context, userID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}
