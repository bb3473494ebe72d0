package leaderboard_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fitboard/internal/leaderboard"
	"github.com/2beens/fitboard/internal/telemetry/metrics"
)

var testNow = time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)

const testCollection = "10-12-2026-leaderboard"

func username(name string) leaderboard.IdentityFunc {
	return func(context.Context) (string, error) {
		if name == "" {
			return "", leaderboard.ErrIdentityMissing
		}
		return name, nil
	}
}

func weekSteps(count int, err error) leaderboard.StepCounterFunc {
	return func(context.Context) (int, error) {
		return count, err
	}
}

func newTestService(store leaderboard.DocumentStore, identity leaderboard.IdentityProvider, opts ...leaderboard.Option) *leaderboard.Service {
	opts = append([]leaderboard.Option{
		leaderboard.WithClock(func() time.Time { return testNow }),
		leaderboard.WithLocation(time.UTC),
	}, opts...)
	return leaderboard.NewService(store, identity, weekSteps(0, nil), opts...)
}

func seed(t *testing.T, store *leaderboard.MemoryStore, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("user%02d", i)
		entry := leaderboard.Entry{Username: name, Count: (n + 1 - i) * 100}
		require.NoError(t, store.PutDocument(context.Background(), testCollection, name, entry.Document()))
	}
}

func TestService_Publish_IdentityMissingBeforeStoreIO(t *testing.T) {
	ctrl := gomock.NewController(t)
	// no expectations: any store call fails the test
	storeMock := NewMockDocumentStore(ctrl)

	service := newTestService(storeMock, username(""))
	err := service.PublishCurrentUserCount(context.Background(), 100)
	assert.ErrorIs(t, err, leaderboard.ErrIdentityMissing)

	service = leaderboard.NewService(storeMock, nil, weekSteps(5, nil))
	_, err = service.Refresh(context.Background())
	assert.ErrorIs(t, err, leaderboard.ErrIdentityMissing)
}

func TestService_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMockDocumentStore(ctrl)
	service := newTestService(storeMock, username("alice"))

	storeMock.EXPECT().
		PutDocument(gomock.Any(), testCollection, "alice", leaderboard.Document{"username": "alice", "count": 100}).
		Return(nil)
	require.NoError(t, service.PublishCurrentUserCount(context.Background(), 100))

	// negative counts are stored as 0
	storeMock.EXPECT().
		PutDocument(gomock.Any(), testCollection, "alice", leaderboard.Document{"username": "alice", "count": 0}).
		Return(nil)
	require.NoError(t, service.PublishCurrentUserCount(context.Background(), -20))

	storeMock.EXPECT().
		PutDocument(gomock.Any(), testCollection, "alice", gomock.Any()).
		Return(errors.New("unavailable"))
	err := service.PublishCurrentUserCount(context.Background(), 100)
	assert.ErrorIs(t, err, leaderboard.ErrStoreWrite)
	assert.ErrorContains(t, err, "unavailable")
}

func TestService_Publish_Overwrites(t *testing.T) {
	store := leaderboard.NewMemoryStore()
	service := newTestService(store, username("alice"))

	require.NoError(t, service.PublishCurrentUserCount(context.Background(), 100))
	require.NoError(t, service.PublishCurrentUserCount(context.Background(), 150))

	assert.Equal(t, 1, store.Len(testCollection))
	view, err := service.FetchRanking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []leaderboard.Entry{{Username: "alice", Count: 150}}, view.Top)
}

func TestService_FetchRanking(t *testing.T) {
	store := leaderboard.NewMemoryStore()
	seed(t, store, 15)
	metricsManager := metrics.NewTestManager()

	service := newTestService(store, username("user12"), leaderboard.WithMetrics(metricsManager))
	view, err := service.FetchRanking(context.Background())
	require.NoError(t, err)

	require.Len(t, view.Top, 10)
	assert.Equal(t, "user01", view.Top[0].Username)
	assert.Equal(t, "user10", view.Top[9].Username)
	require.NotNil(t, view.Self)
	assert.Equal(t, leaderboard.Entry{Username: "user12", Count: 400}, *view.Self)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterLeaderboardFetches.WithLabelValues("success")))

	// without identity there is never a self entry
	view, err = newTestService(store, username("")).FetchRanking(context.Background())
	require.NoError(t, err)
	assert.Len(t, view.Top, 10)
	assert.Nil(t, view.Self)
}

func TestService_FetchRanking_SkipsBadDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMockDocumentStore(ctrl)
	metricsManager := metrics.NewTestManager()
	service := newTestService(storeMock, username("alice"), leaderboard.WithMetrics(metricsManager))

	storeMock.EXPECT().
		ListDocuments(gomock.Any(), testCollection).
		Return([]leaderboard.Document{
			{"username": "alice", "count": 300},
			{"username": "", "count": 900},
			{"username": "bob", "count": "lots"},
			{"count": 1000},
			{"username": "carol", "count": 500.0},
		}, nil)

	view, err := service.FetchRanking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []leaderboard.Entry{
		{Username: "carol", Count: 500},
		{Username: "alice", Count: 300},
	}, view.Top)
	assert.Nil(t, view.Self)
	assert.Equal(t, float64(3), testutil.ToFloat64(metricsManager.CounterSkippedLeaderboardDoc))
}

func TestService_FetchRanking_StoreError(t *testing.T) {
	store := leaderboard.NewMemoryStore()
	store.ListErr = errors.New("timeout")

	view, err := newTestService(store, username("alice")).FetchRanking(context.Background())
	assert.Nil(t, view)
	assert.ErrorIs(t, err, leaderboard.ErrStoreRead)
}

func TestService_Refresh(t *testing.T) {
	store := leaderboard.NewMemoryStore()
	seed(t, store, 12)
	service := leaderboard.NewService(store, username("newbie"), weekSteps(1250, nil),
		leaderboard.WithClock(func() time.Time { return testNow }),
		leaderboard.WithLocation(time.UTC),
	)

	view, err := service.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Top, 10)
	assert.Equal(t, leaderboard.Entry{Username: "newbie", Count: 1250}, view.Top[0])
	assert.Nil(t, view.Self)
	assert.Equal(t, 13, store.Len(testCollection))

	view, err = service.RefreshWithCount(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, view.Self)
	assert.Equal(t, 10, view.Self.Count)
	assert.Equal(t, 13, store.Len(testCollection))
}

func TestService_Refresh_PublishFailureSkipsFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMockDocumentStore(ctrl)
	service := newTestService(storeMock, username("alice"))

	storeMock.EXPECT().
		PutDocument(gomock.Any(), testCollection, "alice", gomock.Any()).
		Return(errors.New("read only"))

	view, err := service.RefreshWithCount(context.Background(), 100)
	assert.Nil(t, view)
	assert.ErrorIs(t, err, leaderboard.ErrStoreWrite)
}

func TestService_Refresh_FetchOnPublishFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMockDocumentStore(ctrl)
	service := newTestService(storeMock, username("alice"), leaderboard.WithFetchOnPublishFailure(true))

	gomock.InOrder(
		storeMock.EXPECT().
			PutDocument(gomock.Any(), testCollection, "alice", gomock.Any()).
			Return(errors.New("read only")),
		storeMock.EXPECT().
			ListDocuments(gomock.Any(), testCollection).
			Return([]leaderboard.Document{{"username": "bob", "count": 10}}, nil),
	)

	view, err := service.RefreshWithCount(context.Background(), 100)
	assert.ErrorIs(t, err, leaderboard.ErrStoreWrite)
	require.NotNil(t, view)
	assert.Equal(t, []leaderboard.Entry{{Username: "bob", Count: 10}}, view.Top)
}

func TestService_Refresh_StepCountFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMockDocumentStore(ctrl)
	service := leaderboard.NewService(storeMock, username("alice"), weekSteps(0, errors.New("provider down")))

	view, err := service.Refresh(context.Background())
	assert.Nil(t, view)
	assert.ErrorContains(t, err, "provider down")
}
