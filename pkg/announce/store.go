package announce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store owns the announcement collection on disk. Every operation is a
// full read-modify-write of the store file under one mutex: load the
// whole collection, mutate in memory, write the whole collection back.
// Records are at most a few hundred, so there is no incremental path.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithStoreClock overrides the wall-clock source, used to seed
// nextRefresh on creation.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store backed by the file at path. The file is not
// touched until Init or the first operation.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path: path,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the path to the store file.
func (s *Store) Path() string {
	return s.path
}

// Init creates an empty placeholder store when no file exists. A
// missing file is not corruption: it is the first run.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat store file: %w", err)
	}

	log.Warn().Str("path", s.path).Msg("Announcement store not found, creating a placeholder file")

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return s.save(Collection{})
}

// All returns a deep copy of the full collection.
func (s *Store) All(ctx context.Context) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return nil, err
	}

	out := Collection{}
	for devKey, group := range col {
		out[devKey] = make(map[int64]*Record, len(group))
		for id, rec := range group {
			out[devKey][id] = rec.Clone()
		}
	}
	return out, nil
}

// Get returns a copy of one record.
func (s *Store) Get(ctx context.Context, devKey, id int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return nil, err
	}
	rec, err := find(col, devKey, id)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Create validates the supplied fields, assigns a unique id within the
// device group, seeds nextRefresh to now, and persists the new record.
// A duplicate name is never overwritten and never fatal: the incoming
// record is renamed with an " X" suffix and a warning is logged.
func (s *Store) Create(ctx context.Context, devKey int64, name, text, refresh string) (int64, error) {
	minutes, verr := ValidateRecord(name, text, refresh)
	if verr != nil {
		return 0, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return 0, err
	}

	group := col[devKey]
	if group == nil {
		group = map[int64]*Record{}
		col[devKey] = group
	}

	if nameInUse(group, name) {
		log.Warn().Str("name", name).Msg("Duplicate announcement name found, temporary correction applied")
		name += " X"
	}

	id := newID(group)
	group[id] = &Record{
		ID:             id,
		Name:           name,
		Text:           text,
		RefreshMinutes: minutes,
		NextRefresh:    s.now().Format(NextRefreshLayout),
	}

	if err := s.save(col); err != nil {
		return 0, err
	}
	return id, nil
}

// Duplicate copies an existing record under a new id. The name gets a
// " copy" suffix; text, interval, and nextRefresh carry over verbatim.
func (s *Store) Duplicate(ctx context.Context, devKey, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return 0, err
	}
	rec, err := find(col, devKey, id)
	if err != nil {
		return 0, err
	}

	group := col[devKey]
	newKey := newID(group)
	dup := rec.Clone()
	dup.ID = newKey
	dup.Name += " copy"
	group[newKey] = dup

	if err := s.save(col); err != nil {
		return 0, err
	}
	return newKey, nil
}

// Edit updates the user-editable fields of a record in place. The
// nextRefresh timestamp is deliberately left untouched so an edit does
// not perturb the refresh cadence.
func (s *Store) Edit(ctx context.Context, devKey, id int64, name, text, refresh string) error {
	minutes, verr := ValidateRecord(name, text, refresh)
	if verr != nil {
		return verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return err
	}
	rec, err := find(col, devKey, id)
	if err != nil {
		return err
	}

	rec.Name = name
	rec.Text = text
	rec.RefreshMinutes = minutes

	return s.save(col)
}

// Delete removes a record. The store is left unmodified when the
// record is absent.
func (s *Store) Delete(ctx context.Context, devKey, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return err
	}
	if _, err := find(col, devKey, id); err != nil {
		return err
	}

	delete(col[devKey], id)
	return s.save(col)
}

// Reconcile brings the store's device groups in lockstep with the
// externally-owned device set: groups for unknown keys are dropped and
// empty groups are seeded for new keys. Called on startup.
func (s *Store) Reconcile(ctx context.Context, knownKeys []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return err
	}

	known := make(map[int64]bool, len(knownKeys))
	for _, k := range knownKeys {
		known[k] = true
	}

	for devKey := range col {
		if !known[devKey] {
			log.Info().Int64("device", devKey).Msg("Dropping announcements for removed device")
			delete(col, devKey)
		}
	}
	for _, k := range knownKeys {
		if _, ok := col[k]; !ok {
			col[k] = map[int64]*Record{}
		}
	}

	return s.save(col)
}

// Export returns the whole collection as canonical JSON.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return nil, err
	}
	return marshalCollection(col)
}

// Mutate runs fn against the live collection under the store lock and
// persists the result in a single save. The refresh scheduler uses it
// so one tick touches the file exactly twice: one load, one save. An
// error from fn discards the in-memory mutation without persisting.
func (s *Store) Mutate(ctx context.Context, fn func(Collection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(col); err != nil {
		return err
	}
	return s.save(col)
}

// Names returns the sorted (id, name) pairs for one device group, for
// selection menus.
func (s *Store) Names(ctx context.Context, devKey int64) ([]struct {
	ID   int64
	Name string
}, error) {
	col, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	var out []struct {
		ID   int64
		Name string
	}
	for id, rec := range col[devKey] {
		out = append(out, struct {
			ID   int64
			Name string
		}{ID: id, Name: rec.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// load reads and parses the store file. The canonical JSON form is
// tried first; a legacy literal dump is parsed as a fallback and
// rewritten canonically at once. A file that parses as neither is
// corruption, never an empty store.
func (s *Store) load() (Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	col, jsonErr := unmarshalCollection(data)
	if jsonErr == nil {
		return col, nil
	}

	col, legacyErr := parseLegacy(data)
	if legacyErr != nil {
		return nil, fmt.Errorf("%w: not canonical (%v), not legacy (%v)", ErrStoreCorrupt, jsonErr, legacyErr)
	}

	// One-time migration: a successful legacy parse rewrites the store
	// in the canonical form immediately.
	log.Info().Str("path", s.path).Msg("Converting legacy announcement store to canonical format")
	if err := s.save(col); err != nil {
		return nil, err
	}
	return col, nil
}

// save serializes the whole collection and atomically replaces the
// store file, so a crash mid-write cannot corrupt it.
func (s *Store) save(col Collection) error {
	data, err := marshalCollection(col)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".announcements-*")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func marshalCollection(col Collection) ([]byte, error) {
	doc := make(map[string]map[string]recordJSON, len(col))
	for devKey, group := range col {
		entry := make(map[string]recordJSON, len(group))
		for id, rec := range group {
			entry[strconv.FormatInt(id, 10)] = rec.toJSON()
		}
		doc[strconv.FormatInt(devKey, 10)] = entry
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal store: %w", err)
	}
	return data, nil
}

func unmarshalCollection(data []byte) (Collection, error) {
	if err := checkStoreShape(data); err != nil {
		return nil, err
	}

	var doc map[string]map[string]recordJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	col := Collection{}
	for devStr, group := range doc {
		devKey, err := strconv.ParseInt(devStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-integer device key %q", devStr)
		}
		col[devKey] = make(map[int64]*Record, len(group))
		for idStr, rec := range group {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("non-integer announcement key %q", idStr)
			}
			col[devKey][id] = rec.toRecord(id)
		}
	}
	return col, nil
}

func find(col Collection, devKey, id int64) (*Record, error) {
	group, ok := col[devKey]
	if !ok {
		return nil, fmt.Errorf("device group %d: %w", devKey, ErrNotFound)
	}
	rec, ok := group[id]
	if !ok {
		return nil, fmt.Errorf("announcement %d: %w", id, ErrNotFound)
	}
	return rec, nil
}

func nameInUse(group map[int64]*Record, name string) bool {
	for _, rec := range group {
		if rec.Name == name {
			return true
		}
	}
	return false
}
