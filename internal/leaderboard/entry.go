package leaderboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrIdentityMissing = errors.New("username not set")
	ErrStoreRead       = errors.New("leaderboard store read failed")
	ErrStoreWrite      = errors.New("leaderboard store write failed")
	// ErrDecode marks a stored document that is not a valid entry, such documents are skipped
	ErrDecode = errors.New("invalid leaderboard document")
)

const (
	fieldUsername = "username"
	fieldCount    = "count"
)

// Document is a schemaless record of the document store.
type Document map[string]any

type Entry struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// View is the ranking shown to a user: the top entries and, when the user
// is ranked below them, the user's own entry.
type View struct {
	Top  []Entry `json:"top"`
	Self *Entry  `json:"self,omitempty"`
}

func (e Entry) Document() Document {
	return Document{
		fieldUsername: e.Username,
		fieldCount:    e.Count,
	}
}

// DecodeEntry reads an entry out of a stored document.
func DecodeEntry(doc Document) (Entry, error) {
	username, ok := doc[fieldUsername].(string)
	if !ok || strings.TrimSpace(username) == "" {
		return Entry{}, fmt.Errorf("%w: missing username", ErrDecode)
	}

	count, err := decodeCount(doc[fieldCount])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: [%s]: %w", ErrDecode, username, err)
	}

	return Entry{
		Username: username,
		Count:    count,
	}, nil
}

func decodeCount(v any) (int, error) {
	var count int64
	switch c := v.(type) {
	case nil:
		return 0, errors.New("missing count")
	case int:
		count = int64(c)
	case int32:
		count = int64(c)
	case int64:
		count = c
	case float64:
		if c != math.Trunc(c) || math.IsInf(c, 0) {
			return 0, fmt.Errorf("count %v is not an integer", c)
		}
		if c > math.MaxInt32 {
			return 0, fmt.Errorf("count %v out of range", c)
		}
		count = int64(c)
	case json.Number:
		n, err := c.Int64()
		if err != nil {
			return 0, fmt.Errorf("count %s is not an integer", c)
		}
		count = n
	default:
		return 0, fmt.Errorf("count of type %T", v)
	}

	if count < 0 {
		return 0, fmt.Errorf("negative count %d", count)
	}
	if count > math.MaxInt32 {
		return 0, fmt.Errorf("count %d out of range", count)
	}
	return int(count), nil
}
