package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/2beens/fitboard/internal/leaderboard"
)

const (
	KeyUsername = "username"

	MaxUsernameLength = 32
)

var (
	// ErrUsernameNotSet is returned while the device did not pick a username yet.
	ErrUsernameNotSet  = leaderboard.ErrIdentityMissing
	ErrInvalidUsername = errors.New("invalid username")
)

// Store keeps small string values of one device.
type Store interface {
	// GetString returns false if the key was never set
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string) error
}

// Username returns the username chosen on the device.
func Username(ctx context.Context, store Store) (string, error) {
	username, ok, err := store.GetString(ctx, KeyUsername)
	if err != nil {
		return "", fmt.Errorf("get username: %w", err)
	}
	if !ok || username == "" {
		return "", ErrUsernameNotSet
	}
	return username, nil
}

// SetUsername validates and stores the username, returning the stored value.
func SetUsername(ctx context.Context, store Store, username string) (string, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return "", err
	}
	if err := store.SetString(ctx, KeyUsername, username); err != nil {
		return "", fmt.Errorf("set username: %w", err)
	}
	return username, nil
}

// NormalizeUsername trims the username, which then has to be 1 to 32 characters long.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidUsername)
	case !utf8.ValidString(username):
		return "", fmt.Errorf("%w: not utf-8", ErrInvalidUsername)
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, MaxUsernameLength)
	}
	for _, r := range username {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: control characters", ErrInvalidUsername)
		}
	}
	return username, nil
}

// Profile is the identity of one device as the leaderboard sees it.
type Profile struct {
	store Store
}

var _ leaderboard.IdentityProvider = (*Profile)(nil)

func NewProfile(store Store) *Profile {
	return &Profile{
		store: store,
	}
}

func (p *Profile) Username(ctx context.Context) (string, error) {
	return Username(ctx, p.store)
}
