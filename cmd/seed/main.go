package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fitboard/internal/aggregation"
	"github.com/2beens/fitboard/internal/calendar"
	"github.com/2beens/fitboard/internal/config"
	"github.com/2beens/fitboard/internal/db"
	"github.com/2beens/fitboard/internal/health"
	"github.com/2beens/fitboard/internal/identity"
	"github.com/2beens/fitboard/internal/leaderboard"
	"github.com/2beens/fitboard/internal/logging"
)

var seedActivities = []health.ActivityType{
	health.ActivityRunning,
	health.ActivityStrengthTraining,
	health.ActivitySoccer,
	health.ActivityBasketball,
	health.ActivityStairClimbing,
	health.ActivityKickboxing,
	health.ActivityCycling,
	health.ActivityYoga,
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	devices := flag.Int("devices", 15, "number of fake devices")
	days := flag.Int("days", 400, "days of history per device")
	seed := flag.Int64("seed", 0, "random seed, 0 for a random one")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}
	logging.Setup(logging.LoggerSetupParams{
		LogLevel:         cfg.LogLevel,
		Environment:      cfg.Environment,
		SentryServerName: "fitboard-seed",
	})

	gofakeit.Seed(*seed)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     os.Getenv("FITBOARD_POSTGRES_USER"),
		DBPassword: os.Getenv("FITBOARD_POSTGRES_PASS"),
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	if _, err := dbPool.Exec(ctx, health.Schema+leaderboard.Schema); err != nil {
		log.Fatalf("apply schema: %s", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("FITBOARD_REDIS_PASS"),
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()

	var store leaderboard.DocumentStore
	switch cfg.LeaderboardStore {
	case config.LeaderboardStorePostgres:
		store = leaderboard.NewPgStore(dbPool)
	default:
		store = leaderboard.NewRedisStore(rdb, cfg.LeaderboardCollectionTTLDuration())
	}

	seeder := &seeder{
		repo:  health.NewRepo(dbPool),
		rdb:   rdb,
		store: store,
		loc:   loc,
		now:   time.Now(),
		days:  *days,
	}
	for i := 0; i < *devices; i++ {
		deviceID := fmt.Sprintf("seed-device-%04d", i)
		if err := seeder.seedDevice(ctx, deviceID); err != nil {
			log.Fatalf("seed device [%s]: %s", deviceID, err)
		}
	}

	log.Infof("seeded %d devices, leaderboard collection [%s]", *devices, leaderboard.CollectionKey(seeder.now, loc))
}

type seeder struct {
	repo  *health.Repo
	rdb   *redis.Client
	store leaderboard.DocumentStore
	loc   *time.Location
	now   time.Time
	days  int
}

func (s *seeder) seedDevice(ctx context.Context, deviceID string) error {
	if err := s.repo.Authorize(ctx, deviceID, health.AllMetrics); err != nil {
		return fmt.Errorf("authorize: %w", err)
	}

	samples := s.fakeSamples()
	added, err := s.repo.AddSamples(ctx, deviceID, samples)
	if err != nil {
		return fmt.Errorf("add samples: %w", err)
	}
	workouts := s.fakeWorkouts()
	if _, err := s.repo.AddWorkouts(ctx, deviceID, workouts); err != nil {
		return fmt.Errorf("add workouts: %w", err)
	}

	profileStore := identity.NewRedisStore(s.rdb, deviceID)
	username, err := identity.SetUsername(ctx, profileStore, gofakeit.Username())
	if err != nil {
		return fmt.Errorf("set username: %w", err)
	}

	engine := aggregation.NewEngine(
		s.repo.ForDevice(deviceID),
		aggregation.WithLocation(s.loc),
		aggregation.WithClock(func() time.Time { return s.now }),
	)
	service := leaderboard.NewService(
		s.store,
		identity.NewProfile(profileStore),
		leaderboard.StepCounterFunc(engine.CurrentWeekSteps),
		leaderboard.WithLocation(s.loc),
		leaderboard.WithClock(func() time.Time { return s.now }),
	)
	view, err := service.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh leaderboard: %w", err)
	}

	log.Debugf("device [%s] as [%s]: %d samples, %d workouts, leaderboard top %d",
		deviceID, username, added, len(workouts), len(view.Top))
	return nil
}

// fakeSamples generates hourly steps and energy, daily exercise time and
// stand hours between 8:00 and 20:00 for every day of history.
func (s *seeder) fakeSamples() []health.Sample {
	today := calendar.StartOfDay(s.now, s.loc)
	samples := make([]health.Sample, 0, s.days*40)
	for d := s.days - 1; d >= 0; d-- {
		day := today.AddDate(0, 0, -d)
		for hour := 8; hour < 21; hour++ {
			ts := day.Add(time.Duration(hour) * time.Hour)
			if ts.After(s.now) {
				break
			}
			samples = append(samples,
				health.Sample{Metric: health.MetricSteps, Timestamp: ts, Value: float64(gofakeit.Number(0, 1500))},
				health.Sample{Metric: health.MetricActiveEnergy, Timestamp: ts, Value: gofakeit.Float64Range(5, 80)},
				health.Sample{Metric: health.MetricStandHour, Timestamp: ts, Value: float64(gofakeit.Number(health.StandHourStood, health.StandHourIdle))},
			)
		}
		if day.Before(s.now) {
			samples = append(samples, health.Sample{
				Metric:    health.MetricExerciseTime,
				Timestamp: day.Add(12 * time.Hour),
				Value:     float64(gofakeit.Number(0, 90)),
			})
		}
	}
	return samples
}

// fakeWorkouts generates a workout every few days.
func (s *seeder) fakeWorkouts() []health.Workout {
	today := calendar.StartOfDay(s.now, s.loc)
	var workouts []health.Workout
	for d := s.days - 1; d >= 0; d -= gofakeit.Number(1, 4) {
		start := today.AddDate(0, 0, -d).Add(time.Duration(gofakeit.Number(6, 19)) * time.Hour)
		if start.After(s.now) {
			continue
		}
		w := health.Workout{
			ActivityType: seedActivities[gofakeit.Number(0, len(seedActivities)-1)],
			Start:        start,
			End:          start.Add(time.Duration(gofakeit.Number(15, 120)) * time.Minute),
		}
		// some devices do not record energy
		if gofakeit.Bool() {
			kcal := gofakeit.Float64Range(80, 900)
			w.EnergyKcal = &kcal
		}
		workouts = append(workouts, w)
	}
	return workouts
}
