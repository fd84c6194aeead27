package scoring

import (
	"fmt"
	"math"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

type StrengthCalibration struct {
	Bench          Curve   `json:"bench" toml:"bench"`
	Squat          Curve   `json:"squat" toml:"squat"`
	Deadlift       Curve   `json:"deadlift" toml:"deadlift"`
	BenchWeight    float64 `json:"benchWeight" toml:"bench_weight"`
	SquatWeight    float64 `json:"squatWeight" toml:"squat_weight"`
	DeadliftWeight float64 `json:"deadliftWeight" toml:"deadlift_weight"`
}

type EnduranceCalibration struct {
	VO2Max          Curve   `json:"vo2Max" toml:"vo2_max"`
	RestingHR       Curve   `json:"restingHR" toml:"resting_hr"`
	VO2MaxWeight    float64 `json:"vo2MaxWeight" toml:"vo2_max_weight"`
	RestingHRWeight float64 `json:"restingHRWeight" toml:"resting_hr_weight"`
}

type BodyCompositionCalibration struct {
	BodyFat             Curve   `json:"bodyFat" toml:"body_fat"`
	FFMI                Curve   `json:"ffmi" toml:"ffmi"`
	LeanMassTrend       Curve   `json:"leanMassTrend" toml:"lean_mass_trend"` // kg gained since previous measurement
	BodyFatWeight       float64 `json:"bodyFatWeight" toml:"body_fat_weight"`
	FFMIWeight          float64 `json:"ffmiWeight" toml:"ffmi_weight"`
	LeanMassTrendWeight float64 `json:"leanMassTrendWeight" toml:"lean_mass_trend_weight"`
}

type RecoveryCalibration struct {
	Readiness       Curve   `json:"readiness" toml:"readiness"`
	HRV             Curve   `json:"hrv" toml:"hrv"`
	ReadinessWeight float64 `json:"readinessWeight" toml:"readiness_weight"`
	HRVWeight       float64 `json:"hrvWeight" toml:"hrv_weight"`
}

type PowerOutputCalibration struct {
	PowerToWeight Curve `json:"powerToWeight" toml:"power_to_weight"` // W/kg
}

// Weights of each category in the overall score. They must sum to 1.
type Weights struct {
	Strength        float64 `json:"strength" toml:"strength"`
	Endurance       float64 `json:"endurance" toml:"endurance"`
	BodyComposition float64 `json:"bodyComposition" toml:"body_composition"`
	Recovery        float64 `json:"recovery" toml:"recovery"`
	PowerOutput     float64 `json:"powerOutput" toml:"power_output"`
	Technique       float64 `json:"technique" toml:"technique"`
}

func (w Weights) asList() []float64 {
	return []float64{w.Strength, w.Endurance, w.BodyComposition, w.Recovery, w.PowerOutput, w.Technique}
}

func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w.asList() {
		sum += v
	}
	return sum
}

// GradeCutoff assigns Grade to every overall score >= Min.
type GradeCutoff struct {
	Grade Grade   `json:"grade" toml:"grade"`
	Min   float64 `json:"min" toml:"min"`
}

// Calibration holds every tunable constant of the calculator.
type Calibration struct {
	Strength        StrengthCalibration        `json:"strength" toml:"strength"`
	Endurance       EnduranceCalibration       `json:"endurance" toml:"endurance"`
	BodyComposition BodyCompositionCalibration `json:"bodyComposition" toml:"body_composition"`
	Recovery        RecoveryCalibration        `json:"recovery" toml:"recovery"`
	PowerOutput     PowerOutputCalibration     `json:"powerOutput" toml:"power_output"`
	Weights         Weights                    `json:"weights" toml:"weights"`
	Grades          []GradeCutoff              `json:"grades" toml:"grades"`
}

// DefaultCalibration returns the built-in breakpoints, weights and grade cutoffs.
func DefaultCalibration() Calibration {
	return Calibration{
		Strength: StrengthCalibration{
			// lift / bodyweight
			Bench:          Curve{{0, 0}, {0.5, 10}, {1.0, 35}, {1.5, 60}, {2.0, 90}, {2.5, 100}},
			Squat:          Curve{{0, 0}, {0.75, 10}, {1.25, 35}, {1.75, 60}, {2.5, 90}, {3.0, 100}},
			Deadlift:       Curve{{0, 0}, {1.0, 10}, {1.5, 35}, {2.0, 60}, {2.75, 90}, {3.25, 100}},
			BenchWeight:    0.3,
			SquatWeight:    0.35,
			DeadliftWeight: 0.35,
		},
		Endurance: EnduranceCalibration{
			VO2Max:          Curve{{20, 0}, {35, 40}, {45, 60}, {55, 80}, {65, 95}, {75, 100}},
			RestingHR:       Curve{{40, 100}, {50, 85}, {60, 65}, {70, 45}, {80, 25}, {100, 0}},
			VO2MaxWeight:    0.6,
			RestingHRWeight: 0.4,
		},
		BodyComposition: BodyCompositionCalibration{
			// flat at 100 below the 6% floor
			BodyFat:             Curve{{6, 100}, {10, 90}, {15, 75}, {20, 55}, {25, 35}, {30, 15}, {40, 0}},
			FFMI:                Curve{{15, 10}, {17, 30}, {19, 50}, {21, 70}, {23, 85}, {25, 100}},
			LeanMassTrend:       Curve{{-3, 0}, {-1.5, 25}, {0, 50}, {1.5, 75}, {3, 100}},
			BodyFatWeight:       0.5,
			FFMIWeight:          0.3,
			LeanMassTrendWeight: 0.2,
		},
		Recovery: RecoveryCalibration{
			Readiness:       Curve{{0, 0}, {100, 100}},
			HRV:             Curve{{20, 0}, {40, 40}, {60, 70}, {80, 90}, {100, 100}},
			ReadinessWeight: 0.6,
			HRVWeight:       0.4,
		},
		PowerOutput: PowerOutputCalibration{
			PowerToWeight: Curve{{0, 0}, {4, 10}, {8, 40}, {12, 70}, {16, 90}, {20, 100}},
		},
		Weights: Weights{
			Strength:        0.25,
			Endurance:       0.20,
			BodyComposition: 0.15,
			Recovery:        0.15,
			PowerOutput:     0.15,
			Technique:       0.10,
		},
		Grades: []GradeCutoff{
			{GradeAPlus, 90},
			{GradeA, 80},
			{GradeBPlus, 70},
			{GradeB, 60},
			{GradeCPlus, 50},
			{GradeC, 40},
			{GradeD, 30},
			{GradeF, 0},
		},
	}
}

// LoadCalibration decodes a TOML file on top of the defaults, so the file
// only needs to name what it overrides.
func LoadCalibration(path string) (Calibration, error) {
	calibration := DefaultCalibration()
	if _, err := toml.DecodeFile(path, &calibration); err != nil {
		return Calibration{}, fmt.Errorf("decode calibration file %s: %w", path, err)
	}
	if err := calibration.Validate(); err != nil {
		return Calibration{}, fmt.Errorf("calibration file %s: %w", path, err)
	}
	return calibration, nil
}

// Validate reports all curve, weight and grade problems at once.
func (c Calibration) Validate() error {
	var err error

	curves := []struct {
		name  string
		curve Curve
	}{
		{"strength.bench", c.Strength.Bench},
		{"strength.squat", c.Strength.Squat},
		{"strength.deadlift", c.Strength.Deadlift},
		{"endurance.vo2_max", c.Endurance.VO2Max},
		{"endurance.resting_hr", c.Endurance.RestingHR},
		{"body_composition.body_fat", c.BodyComposition.BodyFat},
		{"body_composition.ffmi", c.BodyComposition.FFMI},
		{"body_composition.lean_mass_trend", c.BodyComposition.LeanMassTrend},
		{"recovery.readiness", c.Recovery.Readiness},
		{"recovery.hrv", c.Recovery.HRV},
		{"power_output.power_to_weight", c.PowerOutput.PowerToWeight},
	}
	for _, cv := range curves {
		err = multierr.Append(err, cv.curve.validate(cv.name))
	}

	subWeights := []struct {
		name    string
		weights []float64
	}{
		{"strength", []float64{c.Strength.BenchWeight, c.Strength.SquatWeight, c.Strength.DeadliftWeight}},
		{"endurance", []float64{c.Endurance.VO2MaxWeight, c.Endurance.RestingHRWeight}},
		{"body_composition", []float64{c.BodyComposition.BodyFatWeight, c.BodyComposition.FFMIWeight, c.BodyComposition.LeanMassTrendWeight}},
		{"recovery", []float64{c.Recovery.ReadinessWeight, c.Recovery.HRVWeight}},
	}
	for _, sw := range subWeights {
		err = multierr.Append(err, validateWeights(sw.name, sw.weights))
	}

	err = multierr.Append(err, validateWeights("weights", c.Weights.asList()))
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > 0.001 {
		err = multierr.Append(err, fmt.Errorf("weights: sum to %.4f, must sum to 1.0", sum))
	}

	err = multierr.Append(err, validateGrades(c.Grades))

	return err
}

func validateWeights(name string, weights []float64) error {
	var sum float64
	for _, w := range weights {
		if !isFinite(w) || w < 0 {
			return fmt.Errorf("%s: weights must be finite and >= 0", name)
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("%s: at least one weight must be > 0", name)
	}
	return nil
}

// validateGrades checks that cutoffs are strictly descending, start at or
// below 100 and end at exactly 0, so [0,100] is covered with no gaps.
func validateGrades(grades []GradeCutoff) error {
	if len(grades) == 0 {
		return fmt.Errorf("grades: no cutoffs")
	}

	seen := make(map[Grade]bool)
	for i, g := range grades {
		if g.Grade == "" {
			return fmt.Errorf("grades: cutoff %d has no grade", i)
		}
		if seen[g.Grade] {
			return fmt.Errorf("grades: duplicate grade %s", g.Grade)
		}
		seen[g.Grade] = true

		if !isFinite(g.Min) || g.Min < MinScore || g.Min > MaxScore {
			return fmt.Errorf("grades: cutoff %s min %.2f outside [0,100]", g.Grade, g.Min)
		}
		if i > 0 && g.Min >= grades[i-1].Min {
			return fmt.Errorf("grades: cutoff %s must be below %s", g.Grade, grades[i-1].Grade)
		}
	}

	if last := grades[len(grades)-1]; last.Min != MinScore {
		return fmt.Errorf("grades: last cutoff %s must start at 0", last.Grade)
	}

	return nil
}
