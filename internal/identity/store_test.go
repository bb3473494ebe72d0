package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fitboard/internal/leaderboard"
)

func TestNormalizeUsername(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
		valid    bool
	}{
		{in: "alice", expected: "alice", valid: true},
		{in: "  Bob the Walker \n", expected: "Bob the Walker", valid: true},
		{in: "Zoë 🏃", expected: "Zoë 🏃", valid: true},
		{in: strings.Repeat("ü", 32), expected: strings.Repeat("ü", 32), valid: true},
		{in: strings.Repeat("ü", 33)},
		{in: ""},
		{in: "   "},
		{in: "tab\tname"},
	}

	for _, tc := range testCases {
		got, err := NormalizeUsername(tc.in)
		if !tc.valid {
			assert.ErrorIs(t, err, ErrInvalidUsername, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.expected, got)
	}
}

func TestRedisStore_Username(t *testing.T) {
	db, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = db.Close() })
	store := NewRedisStore(db, "device-0001")
	ctx := context.Background()
	key := "fitboard-identity||device-0001||username"

	mock.ExpectGet(key).SetErr(redis.Nil)
	_, err := Username(ctx, store)
	assert.ErrorIs(t, err, ErrUsernameNotSet)
	// the leaderboard sees the same failure
	assert.ErrorIs(t, err, leaderboard.ErrIdentityMissing)

	mock.ExpectSet(key, "alice", 0).SetVal("OK")
	username, err := SetUsername(ctx, store, " alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	mock.ExpectGet(key).SetVal("alice")
	username, err = NewProfile(store).Username(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	mock.ExpectGet(key).SetErr(errors.New("connection reset"))
	_, err = Username(ctx, store)
	assert.ErrorContains(t, err, "connection reset")
	assert.False(t, errors.Is(err, ErrUsernameNotSet))

	// invalid names never reach redis
	_, err = SetUsername(ctx, store, "   ")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	assert.NoError(t, mock.ExpectationsWereMet())
}
