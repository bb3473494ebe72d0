package aggregation

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPreset = errors.New("unknown window preset")

// Preset is one of the supported chart windows.
type Preset string

const (
	PresetWeek        Preset = "1W"
	PresetMonth       Preset = "1M"
	PresetThreeMonths Preset = "3M"
	PresetYearToDate  Preset = "YTD"
	PresetOneYear     Preset = "1Y"
)

var AllPresets = []Preset{
	PresetWeek,
	PresetMonth,
	PresetThreeMonths,
	PresetYearToDate,
	PresetOneYear,
}

// monthsInSweep is the length of the monthly sweep behind YTD and 1Y.
const monthsInSweep = 12

func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllPresets {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

func (p Preset) String() string {
	return string(p)
}

// Days is the number of daily buckets of the preset, today included.
// Monthly presets return 0.
func (p Preset) Days() int {
	switch p {
	case PresetWeek:
		return 7
	case PresetMonth:
		return 30
	case PresetThreeMonths:
		return 90
	default:
		return 0
	}
}

func (p Preset) IsDaily() bool {
	return p.Days() > 0
}
