package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitboard/internal/telemetry/metrics"
	"github.com/2beens/fitboard/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

// IdentityProvider returns the username chosen on the device, ErrIdentityMissing if none.
type IdentityProvider interface {
	Username(ctx context.Context) (string, error)
}

type IdentityFunc func(ctx context.Context) (string, error)

func (f IdentityFunc) Username(ctx context.Context) (string, error) {
	return f(ctx)
}

// StepCounter returns the step total of the current week.
type StepCounter interface {
	CurrentWeekSteps(ctx context.Context) (int, error)
}

type StepCounterFunc func(ctx context.Context) (int, error)

func (f StepCounterFunc) CurrentWeekSteps(ctx context.Context) (int, error) {
	return f(ctx)
}

// Service publishes the weekly step count of one device's user and reads the weekly ranking.
type Service struct {
	store    DocumentStore
	identity IdentityProvider
	steps    StepCounter

	loc                   *time.Location
	now                   func() time.Time
	fetchOnPublishFailure bool
	metricsManager        *metrics.Manager
}

type Option func(*Service)

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithFetchOnPublishFailure makes a refresh read the ranking even when the publish failed.
// Off by default: a failed publish fails the refresh without a read.
func WithFetchOnPublishFailure(enabled bool) Option {
	return func(s *Service) {
		s.fetchOnPublishFailure = enabled
	}
}

func WithMetrics(metricsManager *metrics.Manager) Option {
	return func(s *Service) {
		s.metricsManager = metricsManager
	}
}

func NewService(store DocumentStore, identity IdentityProvider, steps StepCounter, opts ...Option) *Service {
	s := &Service{
		store:    store,
		identity: identity,
		steps:    steps,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CollectionKey is the key of the current week's collection.
func (s *Service) CollectionKey() string {
	return CollectionKey(s.now(), s.loc)
}

// PublishCurrentUserCount replaces the user's entry in the current week's collection.
// Without a configured username it fails with ErrIdentityMissing before touching the store.
func (s *Service) PublishCurrentUserCount(ctx context.Context, count int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.leaderboard.publish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	username, err := s.username(ctx)
	if err != nil {
		return err
	}

	if count < 0 {
		count = 0
	}

	collection := s.CollectionKey()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("count", count),
	)

	entry := Entry{Username: username, Count: count}
	err = s.store.PutDocument(ctx, collection, username, entry.Document())
	if s.metricsManager != nil {
		s.metricsManager.CounterLeaderboardPublishes.WithLabelValues(metrics.Outcome(err)).Inc()
	}
	if err != nil {
		return fmt.Errorf("%w: put [%s] into [%s]: %w", ErrStoreWrite, username, collection, err)
	}

	log.Debugf("leaderboard [%s]: %s -> %d", collection, username, count)
	return nil
}

// FetchRanking reads the current week's collection and ranks it. Documents that
// do not decode are skipped.
func (s *Service) FetchRanking(ctx context.Context) (_ *View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.leaderboard.fetch")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	collection := s.CollectionKey()
	span.SetAttributes(attribute.String("collection", collection))

	docs, err := s.store.ListDocuments(ctx, collection)
	if s.metricsManager != nil {
		s.metricsManager.CounterLeaderboardFetches.WithLabelValues(metrics.Outcome(err)).Inc()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list [%s]: %w", ErrStoreRead, collection, err)
	}

	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		entry, err := DecodeEntry(doc)
		if err != nil {
			log.Warnf("leaderboard [%s]: skipping document: %s", collection, err)
			if s.metricsManager != nil {
				s.metricsManager.CounterSkippedLeaderboardDoc.Inc()
			}
			continue
		}
		entries = append(entries, entry)
	}

	username, err := s.username(ctx)
	if err != nil {
		if !errors.Is(err, ErrIdentityMissing) {
			log.Warnf("leaderboard [%s]: ranking without self entry: %s", collection, err)
		}
		username = ""
	}

	return BuildView(entries, username), nil
}

// Refresh publishes the current week's step total, then fetches the ranking.
func (s *Service) Refresh(ctx context.Context) (*View, error) {
	return s.refresh(ctx, s.publishCurrentWeek)
}

// RefreshWithCount is Refresh with a step total supplied by the caller.
func (s *Service) RefreshWithCount(ctx context.Context, count int) (*View, error) {
	return s.refresh(ctx, func(ctx context.Context) error {
		return s.PublishCurrentUserCount(ctx, count)
	})
}

func (s *Service) refresh(ctx context.Context, publish func(ctx context.Context) error) (_ *View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.leaderboard.refresh")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	publishErr := publish(ctx)
	if publishErr != nil && !s.fetchOnPublishFailure {
		return nil, publishErr
	}

	view, fetchErr := s.FetchRanking(ctx)
	return view, multierr.Append(publishErr, fetchErr)
}

func (s *Service) publishCurrentWeek(ctx context.Context) error {
	// no identity, no reason to count
	if _, err := s.username(ctx); err != nil {
		return err
	}
	count, err := s.steps.CurrentWeekSteps(ctx)
	if err != nil {
		return fmt.Errorf("count week steps: %w", err)
	}
	return s.PublishCurrentUserCount(ctx, count)
}

func (s *Service) username(ctx context.Context) (string, error) {
	if s.identity == nil {
		return "", ErrIdentityMissing
	}
	username, err := s.identity.Username(ctx)
	if err != nil {
		if errors.Is(err, ErrIdentityMissing) {
			return "", err
		}
		return "", fmt.Errorf("read identity: %w", err)
	}
	if username == "" {
		return "", ErrIdentityMissing
	}
	return username, nil
}
