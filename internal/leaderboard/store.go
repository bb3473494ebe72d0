package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
)

//go:generate mockgen -source=$GOFILE -destination=leaderboard_mocks_test.go -package=leaderboard_test

// DocumentStore keeps schemaless documents grouped in collections.
type DocumentStore interface {
	ListDocuments(ctx context.Context, collection string) ([]Document, error)
	// PutDocument replaces the whole document stored under key
	PutDocument(ctx context.Context, collection, key string, doc Document) error
}

// decodeDocument parses a stored document. Anything but a JSON object is an error,
// the stores skip such records instead of failing the whole collection.
func decodeDocument(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDecode
	}
	return doc, nil
}
