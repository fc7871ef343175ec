package store

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/cockroachdb/pebble"
)

// PebbleStore persists collections as JSON documents under pebble, keyed
// "<collection>:<id>". An in-memory per-collection index is rebuilt at open
// so FindMany/Count can range-scan without decoding the whole keyspace on
// every read -- the same prefix-key + upper-bound scan idiom the teacher's
// account.Store/storage.PebbleStore used for account/block/cert records,
// generalized here to arbitrary named collections instead of one key family
// per Go struct.
type PebbleStore struct {
	db *pebble.DB

	mu    sync.RWMutex
	index map[string]map[string]struct{} // collection -> set of ids
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	opts := &pebble.Options{
		Cache:                 pebble.NewCache(64 << 20),
		MemTableSize:          32 << 20,
		L0CompactionThreshold: 2,
		L0StopWritesThreshold: 12,
		BytesPerSync:          512 << 10,
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	s := &PebbleStore{db: db, index: make(map[string]map[string]struct{})}
	if err := s.rebuildIndex(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func docKey(collection, id string) []byte {
	return []byte(collection + ":" + id)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan by
// incrementing the final byte of the prefix.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

func (s *PebbleStore) rebuildIndex() error {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key())
		for i := 0; i < len(key); i++ {
			if key[i] == ':' {
				coll, id := key[:i], key[i+1:]
				if s.index[coll] == nil {
					s.index[coll] = make(map[string]struct{})
				}
				s.index[coll][id] = struct{}{}
				break
			}
		}
	}
	return nil
}

func (s *PebbleStore) InsertOne(collection, id string, doc Doc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.db.Set(docKey(collection, id), data, pebble.Sync); err != nil {
		return err
	}
	s.mu.Lock()
	if s.index[collection] == nil {
		s.index[collection] = make(map[string]struct{})
	}
	s.index[collection][id] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *PebbleStore) FindOne(collection, id string) (Doc, bool, error) {
	val, closer, err := s.db.Get(docKey(collection, id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()
	var doc Doc
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *PebbleStore) idsFor(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.index[collection]))
	for id := range s.index[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *PebbleStore) FindMany(collection string, filter Filter, opts FindOptions) ([]Doc, error) {
	var matched []Doc
	for _, id := range s.idsFor(collection) {
		doc, ok, err := s.FindOne(collection, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if filter == nil || filter(doc) {
			matched = append(matched, doc)
		}
	}

	if opts.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessByKey(matched[i], matched[j], opts.SortBy)
			if opts.SortDescending {
				return !less
			}
			return less
		})
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

func lessByKey(a, b Doc, key string) bool {
	av, bv := a[key], b[key]
	switch x := av.(type) {
	case string:
		y, _ := bv.(string)
		return x < y
	case float64:
		y, _ := bv.(float64)
		return x < y
	case int64:
		y, _ := bv.(int64)
		return x < y
	default:
		return false
	}
}

func (s *PebbleStore) UpdateOne(collection, id string, upd Update) error {
	return s.UpdateOneGuarded(collection, id, nil, upd)
}

func (s *PebbleStore) UpdateOneGuarded(collection, id string, guard Filter, upd Update) error {
	doc, ok, err := s.FindOne(collection, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if guard != nil && !guard(doc) {
		return ErrGuardMismatch
	}
	doc = cloneDoc(doc)
	applyUpdate(doc, upd)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.db.Set(docKey(collection, id), data, pebble.Sync)
}

func (s *PebbleStore) DeleteOne(collection, id string) error {
	if err := s.db.Delete(docKey(collection, id), pebble.Sync); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.index[collection], id)
	s.mu.Unlock()
	return nil
}

func (s *PebbleStore) Count(collection string, filter Filter) (int, error) {
	docs, err := s.FindMany(collection, filter, FindOptions{})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}
