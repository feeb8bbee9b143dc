package kv

import (
	"iter"
	"sort"
)

type Pair struct {
	Key, Value string
}

// Storage is an associative structure for (string, string) pairs. Pairs are
// appended during parsing and sorted by key once afterwards, so lookups are
// a binary search. Duplicate keys are kept: the sort is stable and Get
// returns the leftmost match, which is the first occurrence in wire order.
type Storage struct {
	pairs  []Pair
	sorted bool
}

func New() *Storage {
	return new(Storage)
}

// NewPrealloc returns an instance of Storage with pre-allocated underlying storage.
func NewPrealloc(n int) *Storage {
	return &Storage{
		pairs: make([]Pair, 0, n),
	}
}

// Add adds a new pair of key and value. The storage must be re-Sort()ed
// before the next lookup.
func (s *Storage) Add(key, value string) *Storage {
	s.pairs = append(s.pairs, Pair{
		Key:   key,
		Value: value,
	})
	s.sorted = false

	return s
}

// Sort orders the pairs by key, preserving the relative order of duplicates.
func (s *Storage) Sort() *Storage {
	sort.SliceStable(s.pairs, func(i, j int) bool {
		return s.pairs[i].Key < s.pairs[j].Key
	})
	s.sorted = true

	return s
}

// Get returns a value and a bool, indicating whether the value was found.
func (s *Storage) Get(key string) (value string, found bool) {
	if !s.sorted {
		// parsing always sorts; an unsorted storage is just being built
		for _, pair := range s.pairs {
			if pair.Key == key {
				return pair.Value, true
			}
		}

		return "", false
	}

	i := sort.Search(len(s.pairs), func(i int) bool {
		return s.pairs[i].Key >= key
	})
	if i < len(s.pairs) && s.pairs[i].Key == key {
		return s.pairs[i].Value, true
	}

	return "", false
}

// Value returns the first value corresponding to the key, or an empty string.
func (s *Storage) Value(key string) string {
	return s.ValueOr(key, "")
}

// ValueOr returns either the first value corresponding to the key or the
// fallback passed via the second parameter.
func (s *Storage) ValueOr(key, or string) string {
	value, found := s.Get(key)
	if !found {
		return or
	}

	return value
}

// Has indicates whether there's an entry of the key.
func (s *Storage) Has(key string) bool {
	_, found := s.Get(key)
	return found
}

// Iter returns an iterator over the pairs in storage order.
func (s *Storage) Iter() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, pair := range s.pairs {
			if !yield(pair.Key, pair.Value) {
				break
			}
		}
	}
}

// Expose exposes the underlying pairs slice.
func (s *Storage) Expose() []Pair {
	return s.pairs
}

// Len returns a number of stored pairs.
func (s *Storage) Len() int {
	return len(s.pairs)
}

func (s *Storage) Empty() bool {
	return s.Len() == 0
}

// Clear all the entries. The allocated space is kept for reuse.
func (s *Storage) Clear() *Storage {
	s.pairs = s.pairs[:0]
	s.sorted = false

	return s
}
