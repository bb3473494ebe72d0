package leaderboard

import (
	"context"
	"sync"
)

var _ DocumentStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory DocumentStore for tests and local development.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Document

	ListErr error
	PutErr  error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
	}
}

func (s *MemoryStore) ListDocuments(_ context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	docs := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, copyDocument(doc))
	}
	return docs, nil
}

func (s *MemoryStore) PutDocument(_ context.Context, collection, key string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	s.collections[collection][key] = copyDocument(doc)
	return nil
}

// Len returns the number of documents in the collection.
func (s *MemoryStore) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

func copyDocument(doc Document) Document {
	c := make(Document, len(doc))
	for k, v := range doc {
		c[k] = v
	}
	return c
}
