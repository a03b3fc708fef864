// Package session keeps the datasets loaded into a running server.
//
// Analyses may mutate a dataset (in-place coercion, the cluster column), so every
// access to a stored dataset goes through Use, which serialises callers.
package session

import (
	"sort"
	"sync"
	"time"

	"surveylens/domain/core"
	"surveylens/domain/dataset"
	"surveylens/internal"
	"surveylens/internal/errors"
)

// Entry describes one loaded dataset
type Entry struct {
	ID       core.DatasetID `json:"id"`
	Name     string         `json:"name"`
	Rows     int            `json:"rows"`
	Columns  []string       `json:"columns"`
	Schema   string         `json:"schema"`
	LoadedAt time.Time      `json:"loaded_at"`
}

type slot struct {
	entry   Entry
	dataset *dataset.Dataset
}

// Store holds loaded datasets and remembers which one is current
type Store struct {
	mu      sync.Mutex
	slots   map[core.DatasetID]*slot
	current core.DatasetID
	logger  *internal.Logger
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		slots:  make(map[core.DatasetID]*slot),
		logger: internal.DefaultLogger.WithComponent("Session"),
	}
}

// Put stores a dataset under a fresh ID and makes it current
func (s *Store) Put(name string, ds *dataset.Dataset) Entry {
	entry := Entry{
		ID:       core.NewDatasetID(),
		Name:     name,
		LoadedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[entry.ID] = &slot{entry: entry, dataset: ds}
	s.current = entry.ID
	s.logger.Info("Loaded dataset %s (%s): %d rows, %d columns", entry.ID, name, ds.Rows(), len(ds.ColumnNames()))
	return describe(entry, ds)
}

// Current returns the most recently loaded dataset
func (s *Store) Current() (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, err := s.lookup("")
	if err != nil {
		return Entry{}, err
	}
	return describe(sl.entry, sl.dataset), nil
}

// Get returns the entry for id
func (s *Store) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, err := s.lookup(id)
	if err != nil {
		return Entry{}, err
	}
	return describe(sl.entry, sl.dataset), nil
}

// List returns every entry, oldest first
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.slots))
	for _, sl := range s.slots {
		out = append(out, describe(sl.entry, sl.dataset))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LoadedAt.Before(out[j].LoadedAt)
	})
	return out
}

// Delete removes a dataset; deleting the current one leaves no current dataset
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, err := s.lookup(id)
	if err != nil {
		return err
	}
	delete(s.slots, sl.entry.ID)
	if s.current == sl.entry.ID {
		s.current = ""
	}
	return nil
}

// Use runs fn with exclusive access to the dataset with the given ID, or the current
// dataset when id is empty.
func (s *Store) Use(id string, fn func(Entry, *dataset.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, err := s.lookup(id)
	if err != nil {
		return err
	}
	return fn(describe(sl.entry, sl.dataset), sl.dataset)
}

// lookup must be called with mu held
func (s *Store) lookup(id string) (*slot, error) {
	if id == "" {
		if s.current == "" {
			return nil, errors.WithCode(errors.CodeNotFound, core.ErrDatasetMissing)
		}
		return s.slots[s.current], nil
	}
	datasetID, err := core.ParseDatasetID(id)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	sl, ok := s.slots[datasetID]
	if !ok {
		return nil, errors.NotFound("dataset " + id)
	}
	return sl, nil
}

// describe refreshes the shape fields, which in-place analyses can change
func describe(entry Entry, ds *dataset.Dataset) Entry {
	entry.Rows = ds.Rows()
	entry.Columns = ds.ColumnNames()
	entry.Schema = ds.Schema().Short()
	return entry
}
