package health

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/fitboard/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Repo keeps health samples and workouts uploaded by devices.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// ForDevice returns the provider that reads the data of a single device.
func (r *Repo) ForDevice(deviceID string) *PgProvider {
	return &PgProvider{
		db:       r.db,
		deviceID: deviceID,
	}
}

func (r *Repo) AddSamples(ctx context.Context, deviceID string, samples []Sample) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.health.samples.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("samples", len(samples)))

	rows := make([][]any, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []any{deviceID, s.Metric.String(), s.Timestamp, s.Value})
	}

	return r.db.CopyFrom(
		ctx,
		pgx.Identifier{"health_sample"},
		[]string{"device_id", "metric", "timestamp", "value"},
		pgx.CopyFromRows(rows),
	)
}

func (r *Repo) AddWorkouts(ctx context.Context, deviceID string, workouts []Workout) (_ []int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.health.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	batch := &pgx.Batch{}
	for _, w := range workouts {
		batch.Queue(`
			INSERT INTO health_workout (device_id, activity_type, start_at, end_at, energy_kcal)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, deviceID, string(w.ActivityType), w.Start, w.End, w.EnergyKcal)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	ids := make([]int64, 0, len(workouts))
	for range workouts {
		var id int64
		if err := results.QueryRow().Scan(&id); err != nil {
			return nil, fmt.Errorf("insert workout: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Authorize grants read access to the given metrics for the device.
func (r *Repo) Authorize(ctx context.Context, deviceID string, metrics []Metric) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.health.authorize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.String())
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO health_authorization (device_id, metric)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (device_id, metric) DO NOTHING
	`, deviceID, names)
	return err
}

var _ Provider = (*PgProvider)(nil)

// PgProvider is the Provider of one device, backed by postgres.
type PgProvider struct {
	db       *pgxpool.Pool
	deviceID string
}

func (p *PgProvider) QueryAggregateTotal(ctx context.Context, metric Metric, start, end time.Time) (_ float64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "provider.health.aggregate-total")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("metric", metric.String()),
		attribute.String("from", start.String()),
		attribute.String("to", end.String()),
	)

	var total float64
	err = p.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(value), 0)
		FROM health_sample
		WHERE device_id = $1
		  AND metric = $2
		  AND timestamp >= $3
		  AND timestamp < $4
	`, p.deviceID, metric.String(), start, end).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%w: aggregate %s: %w", ErrProviderQuery, metric, err)
	}
	return total, nil
}

func (p *PgProvider) QueryCategorySamples(ctx context.Context, metric Metric, start, end time.Time) (_ []Sample, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "provider.health.samples")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("metric", metric.String()))

	rows, err := p.db.Query(ctx, `
		SELECT timestamp, value
		FROM health_sample
		WHERE device_id = $1
		  AND metric = $2
		  AND timestamp >= $3
		  AND timestamp < $4
		ORDER BY timestamp ASC
	`, p.deviceID, metric.String(), start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: samples %s: %w", ErrProviderQuery, metric, err)
	}
	defer rows.Close()

	samples := make([]Sample, 0)
	for rows.Next() {
		s := Sample{Metric: metric}
		if err := rows.Scan(&s.Timestamp, &s.Value); err != nil {
			return nil, fmt.Errorf("%w: scan sample: %w", ErrProviderQuery, err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: samples %s: %w", ErrProviderQuery, metric, err)
	}

	return samples, nil
}

func (p *PgProvider) QueryAuthorization(ctx context.Context, metrics []Metric) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "provider.health.authorization")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		if !m.IsValid() {
			return fmt.Errorf("%w: %w: %s", ErrProviderQuery, ErrUnknownMetric, m)
		}
		names = append(names, m.String())
	}

	var granted int
	err = p.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT metric)
		FROM health_authorization
		WHERE device_id = $1
		  AND metric = ANY($2::text[])
	`, p.deviceID, names).Scan(&granted)
	if err != nil {
		return fmt.Errorf("%w: authorization: %w", ErrProviderQuery, err)
	}
	if granted < len(uniqueMetrics(metrics)) {
		return fmt.Errorf("%w: %w", ErrProviderQuery, ErrNotAuthorized)
	}
	return nil
}

func (p *PgProvider) QueryWorkouts(ctx context.Context, start, end time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "provider.health.workouts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := p.db.Query(ctx, `
		SELECT id, activity_type, start_at, end_at, energy_kcal
		FROM health_workout
		WHERE device_id = $1
		  AND start_at >= $2
		  AND start_at < $3
		ORDER BY start_at DESC
	`, p.deviceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: workouts: %w", ErrProviderQuery, err)
	}
	defer rows.Close()

	workouts := make([]Workout, 0)
	for rows.Next() {
		var w Workout
		var activityType string
		if err := rows.Scan(&w.ID, &activityType, &w.Start, &w.End, &w.EnergyKcal); err != nil {
			return nil, fmt.Errorf("%w: scan workout: %w", ErrProviderQuery, err)
		}
		w.ActivityType = ActivityType(activityType)
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: workouts: %w", ErrProviderQuery, err)
	}

	return workouts, nil
}

func uniqueMetrics(metrics []Metric) map[Metric]struct{} {
	set := make(map[Metric]struct{}, len(metrics))
	for _, m := range metrics {
		set[m] = struct{}{}
	}
	return set
}
