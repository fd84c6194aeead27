package scoring

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var ErrInvalidInput = errors.New("invalid input")

type Unit string

const (
	UnitKilograms Unit = "kg"
	UnitPounds    Unit = "lb"
)

// StrengthMetrics are one-rep maxes, in the same unit as the bodyweight.
type StrengthMetrics struct {
	Bench    float64 `json:"bench"`
	Squat    float64 `json:"squat"`
	Deadlift float64 `json:"deadlift"`
}

type CardioMetrics struct {
	VO2Max    float64 `json:"vo2Max"`    // ml/kg/min
	RestingHR float64 `json:"restingHR"` // bpm
}

type BodyComposition struct {
	BodyFat  float64 `json:"bodyFat"` // percent, 0-100
	LeanMass float64 `json:"leanMass"`
	// PreviousLeanMass is the lean mass at the previous measurement.
	// Zero means unknown, and the lean mass trend is left out of the score.
	PreviousLeanMass float64 `json:"previousLeanMass,omitempty"`
}

type RecoveryMetrics struct {
	Readiness float64 `json:"readiness"` // 0-100
	HRV       float64 `json:"hrv"`       // ms
}

type PowerMetrics struct {
	PeakPower float64 `json:"peakPower"` // watts
}

// Input is everything the calculator needs for a single athlete.
// Masses are in Unit (kilograms when empty), height is in meters.
type Input struct {
	Name            string          `json:"name"`
	Unit            Unit            `json:"unit,omitempty"`
	Bodyweight      float64         `json:"bodyweight"`
	Height          float64         `json:"height"`
	Strength        StrengthMetrics `json:"strength"`
	Cardio          CardioMetrics   `json:"cardio"`
	BodyComposition BodyComposition `json:"bodyComposition"`
	Recovery        RecoveryMetrics `json:"recovery"`
	Power           PowerMetrics    `json:"power"`
	// Technique is a coach-assigned 0-100 rating. It is taken as is.
	Technique float64 `json:"technique"`
}

func (in Input) unit() Unit {
	if in.Unit == "" {
		return UnitKilograms
	}
	return in.Unit
}

// Validate reports every problem with the input at once.
// The returned error wraps ErrInvalidInput.
func (in Input) Validate() error {
	var err error

	switch in.Unit {
	case "", UnitKilograms, UnitPounds:
	default:
		err = multierr.Append(err, fmt.Errorf("unit: unknown unit %q", in.Unit))
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"bodyweight", in.Bodyweight},
		{"height", in.Height},
		{"cardio.vo2Max", in.Cardio.VO2Max},
		{"cardio.restingHR", in.Cardio.RestingHR},
		{"bodyComposition.leanMass", in.BodyComposition.LeanMass},
		{"recovery.hrv", in.Recovery.HRV},
	}
	for _, f := range positive {
		if !isFinite(f.value) {
			err = multierr.Append(err, fmt.Errorf("%s: must be a finite number", f.name))
			continue
		}
		if f.value <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s: must be > 0", f.name))
		}
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"strength.bench", in.Strength.Bench},
		{"strength.squat", in.Strength.Squat},
		{"strength.deadlift", in.Strength.Deadlift},
		{"bodyComposition.bodyFat", in.BodyComposition.BodyFat},
		{"bodyComposition.previousLeanMass", in.BodyComposition.PreviousLeanMass},
		{"recovery.readiness", in.Recovery.Readiness},
		{"power.peakPower", in.Power.PeakPower},
		{"technique", in.Technique},
	}
	for _, f := range nonNegative {
		if !isFinite(f.value) {
			err = multierr.Append(err, fmt.Errorf("%s: must be a finite number", f.name))
			continue
		}
		if f.value < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: must be >= 0", f.name))
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return nil
}
