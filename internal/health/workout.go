package health

import (
	"time"
)

type ActivityType string

const (
	ActivityRunning            ActivityType = "running"
	ActivityStrengthTraining   ActivityType = "traditional_strength_training"
	ActivitySoccer             ActivityType = "soccer"
	ActivityBasketball         ActivityType = "basketball"
	ActivityStairClimbing      ActivityType = "stair_climbing"
	ActivityKickboxing         ActivityType = "kickboxing"
	ActivityWalking            ActivityType = "walking"
	ActivityCycling            ActivityType = "cycling"
	ActivitySwimming           ActivityType = "swimming"
	ActivityYoga               ActivityType = "yoga"
	ActivityHighIntensityTrain ActivityType = "high_intensity_interval_training"
	ActivityOther              ActivityType = "other"
)

var activityNames = map[ActivityType]string{
	ActivityRunning:            "Running",
	ActivityStrengthTraining:   "Strength Training",
	ActivitySoccer:             "Soccer",
	ActivityBasketball:         "Basketball",
	ActivityStairClimbing:      "Stairstepper",
	ActivityKickboxing:         "Kickboxing",
	ActivityWalking:            "Walking",
	ActivityCycling:            "Cycling",
	ActivitySwimming:           "Swimming",
	ActivityYoga:               "Yoga",
	ActivityHighIntensityTrain: "HIIT",
	ActivityOther:              "Workout",
}

func (a ActivityType) IsValid() bool {
	_, ok := activityNames[a]
	return ok
}

// Name is the human readable name of the activity.
func (a ActivityType) Name() string {
	if name, ok := activityNames[a]; ok {
		return name
	}
	return activityNames[ActivityOther]
}

type Workout struct {
	ID           int64        `json:"id"`
	ActivityType ActivityType `json:"activityType"`
	Start        time.Time    `json:"start"`
	End          time.Time    `json:"end"`
	// EnergyKcal is nil when the device did not record burned energy
	EnergyKcal *float64 `json:"energyKcal,omitempty"`
}

func (w Workout) Duration() time.Duration {
	if w.End.Before(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start)
}

// Minutes is the workout duration in whole minutes.
func (w Workout) Minutes() int {
	return int(w.Duration() / time.Minute)
}
