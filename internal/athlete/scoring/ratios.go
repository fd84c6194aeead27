package scoring

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

const poundsPerKilogram = 2.20462

// StrengthToBodyweightRatio returns lift / bodyweight.
// Both values must be in the same unit; bodyweight must be > 0.
func StrengthToBodyweightRatio(lift, bodyweight float64) float64 {
	return lift / bodyweight
}

// FFMI returns the fat-free mass index: lean mass (kg) / height (m) squared.
func FFMI(leanMassKg, heightM float64) float64 {
	return leanMassKg / (heightM * heightM)
}

// BMI returns the body mass index: weight (kg) / height (m) squared.
func BMI(weightKg, heightM float64) float64 {
	return weightKg / (heightM * heightM)
}

// PowerToWeightRatio returns watts per kilogram of bodyweight.
func PowerToWeightRatio(watts, bodyweightKg float64) float64 {
	return watts / bodyweightKg
}

// ToKilograms converts a mass in the given unit to kilograms.
func ToKilograms(value float64, unit Unit) float64 {
	if unit == UnitPounds {
		return value / poundsPerKilogram
	}
	return value
}

// Ratios holds the unit-free and index values derived from an Input.
type Ratios struct {
	BenchToBodyweight    float64 `json:"benchToBodyweight"`
	SquatToBodyweight    float64 `json:"squatToBodyweight"`
	DeadliftToBodyweight float64 `json:"deadliftToBodyweight"`
	TotalToBodyweight    float64 `json:"totalToBodyweight"`
	BMI                  float64 `json:"bmi"`
	FFMI                 float64 `json:"ffmi"`
	PowerToWeight        float64 `json:"powerToWeight"`
}

// ComputeRatios validates the input and derives all ratios from it.
func ComputeRatios(in Input) (Ratios, error) {
	if err := in.Validate(); err != nil {
		return Ratios{}, err
	}
	return deriveRatios(in)
}

// deriveRatios computes the ratios of a validated input. Fields that are
// valid on their own can still overflow once divided, e.g. a huge lift over
// a tiny bodyweight; such inputs are rejected as invalid.
func deriveRatios(in Input) (Ratios, error) {
	ratios := computeRatios(in)
	if err := ratios.validate(); err != nil {
		return Ratios{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return ratios, nil
}

func (r Ratios) validate() error {
	var err error
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"ratios.benchToBodyweight", r.BenchToBodyweight},
		{"ratios.squatToBodyweight", r.SquatToBodyweight},
		{"ratios.deadliftToBodyweight", r.DeadliftToBodyweight},
		{"ratios.totalToBodyweight", r.TotalToBodyweight},
		{"ratios.bmi", r.BMI},
		{"ratios.ffmi", r.FFMI},
		{"ratios.powerToWeight", r.PowerToWeight},
	} {
		if !isFinite(f.value) {
			err = multierr.Append(err, fmt.Errorf("%s: out of range", f.name))
		}
	}
	return err
}

func computeRatios(in Input) Ratios {
	unit := in.unit()
	bodyweightKg := ToKilograms(in.Bodyweight, unit)
	total := in.Strength.Bench + in.Strength.Squat + in.Strength.Deadlift

	return Ratios{
		BenchToBodyweight:    round2(StrengthToBodyweightRatio(in.Strength.Bench, in.Bodyweight)),
		SquatToBodyweight:    round2(StrengthToBodyweightRatio(in.Strength.Squat, in.Bodyweight)),
		DeadliftToBodyweight: round2(StrengthToBodyweightRatio(in.Strength.Deadlift, in.Bodyweight)),
		TotalToBodyweight:    round2(StrengthToBodyweightRatio(total, in.Bodyweight)),
		BMI:                  round2(BMI(bodyweightKg, in.Height)),
		FFMI:                 round2(FFMI(ToKilograms(in.BodyComposition.LeanMass, unit), in.Height)),
		PowerToWeight:        round2(PowerToWeightRatio(in.Power.PeakPower, bodyweightKg)),
	}
}

// leave only 2 decimals
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
