package store

import "sync"

// MemoryStore is an in-process implementation of Store used by unit tests
// so handler logic can be exercised without a pebble database on disk.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]Doc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]Doc)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) coll(name string) map[string]Doc {
	if s.data[name] == nil {
		s.data[name] = make(map[string]Doc)
	}
	return s.data[name]
}

func (s *MemoryStore) InsertOne(collection, id string, doc Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coll(collection)[id] = cloneDoc(doc)
	return nil
}

func (s *MemoryStore) FindOne(collection, id string) (Doc, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.coll(collection)[id]
	if !ok {
		return nil, false, nil
	}
	return cloneDoc(d), true, nil
}

func (s *MemoryStore) FindMany(collection string, filter Filter, opts FindOptions) ([]Doc, error) {
	s.mu.RLock()
	var matched []Doc
	for _, d := range s.coll(collection) {
		if filter == nil || filter(d) {
			matched = append(matched, cloneDoc(d))
		}
	}
	s.mu.RUnlock()

	if opts.SortBy != "" {
		sortDocs(matched, opts.SortBy, opts.SortDescending)
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []Doc{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func sortDocs(docs []Doc, key string, desc bool) {
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0; j-- {
			less := lessByKey(docs[j-1], docs[j], key)
			swap := less
			if desc {
				swap = !less
			}
			if !swap {
				break
			}
			docs[j-1], docs[j] = docs[j], docs[j-1]
		}
	}
}

func (s *MemoryStore) UpdateOne(collection, id string, upd Update) error {
	return s.UpdateOneGuarded(collection, id, nil, upd)
}

func (s *MemoryStore) UpdateOneGuarded(collection, id string, guard Filter, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.coll(collection)[id]
	if !ok {
		return ErrNotFound
	}
	if guard != nil && !guard(d) {
		return ErrGuardMismatch
	}
	d = cloneDoc(d)
	applyUpdate(d, upd)
	s.coll(collection)[id] = d
	return nil
}

func (s *MemoryStore) DeleteOne(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coll(collection)[id]; !ok {
		return ErrNotFound
	}
	delete(s.coll(collection), id)
	return nil
}

func (s *MemoryStore) Count(collection string, filter Filter) (int, error) {
	docs, err := s.FindMany(collection, filter, FindOptions{})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}
