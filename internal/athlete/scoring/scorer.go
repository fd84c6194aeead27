package scoring

import (
	"fmt"
	"sort"
)

type DerivedScores struct {
	Strength        float64 `json:"strength"`
	Endurance       float64 `json:"endurance"`
	BodyComposition float64 `json:"bodyComposition"`
	Recovery        float64 `json:"recovery"`
	PowerOutput     float64 `json:"powerOutput"`
	Technique       float64 `json:"technique"`
	Overall         float64 `json:"overall"`
}

// Report is the full result for one athlete, as consumed by the dashboard.
type Report struct {
	Name   string        `json:"name"`
	Scores DerivedScores `json:"scores"`
	Grade  Grade         `json:"grade"`
	Ratios Ratios        `json:"ratios"`
}

// OverallScore is the weighted average of the six category scores.
func OverallScore(s DerivedScores, w Weights) float64 {
	return Clamp(weightedMean(
		[]float64{s.Strength, s.Endurance, s.BodyComposition, s.Recovery, s.PowerOutput, s.Technique},
		w.asList(),
	))
}

type Scorer struct {
	calibration Calibration
}

func NewScorer(calibration Calibration) (*Scorer, error) {
	if err := calibration.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration: %w", err)
	}
	return &Scorer{
		calibration: calibration,
	}, nil
}

func (s *Scorer) Calibration() Calibration {
	return s.calibration
}

// Score validates the input and runs it through the whole pipeline:
// ratios -> category scores -> overall -> grade.
func (s *Scorer) Score(in Input) (*Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ratios, err := deriveRatios(in)
	if err != nil {
		return nil, err
	}

	c := s.calibration
	unit := in.unit()
	bodyweightKg := ToKilograms(in.Bodyweight, unit)

	scores := DerivedScores{
		Strength:        StrengthScore(c.Strength, in.Strength, in.Bodyweight),
		Endurance:       EnduranceScore(c.Endurance, in.Cardio),
		BodyComposition: BodyCompositionScore(c.BodyComposition, in.BodyComposition, in.Height, unit),
		Recovery:        RecoveryScore(c.Recovery, in.Recovery),
		PowerOutput:     PowerOutputScore(c.PowerOutput, in.Power, bodyweightKg),
		Technique:       TechniqueScore(in.Technique),
	}
	scores.Overall = OverallScore(scores, c.Weights)

	scores = DerivedScores{
		Strength:        round1(scores.Strength),
		Endurance:       round1(scores.Endurance),
		BodyComposition: round1(scores.BodyComposition),
		Recovery:        round1(scores.Recovery),
		PowerOutput:     round1(scores.PowerOutput),
		Technique:       round1(scores.Technique),
		Overall:         round1(scores.Overall),
	}

	return &Report{
		Name:   in.Name,
		Scores: scores,
		Grade:  GradeFor(scores.Overall, c.Grades),
		Ratios: ratios,
	}, nil
}

// Rank scores every input and orders the reports by overall score, best
// first, then by name. Any invalid input fails the whole call.
func (s *Scorer) Rank(inputs []Input) ([]Report, error) {
	reports := make([]Report, 0, len(inputs))
	for i, in := range inputs {
		report, err := s.Score(in)
		if err != nil {
			return nil, fmt.Errorf("athlete %d (%s): %w", i, in.Name, err)
		}
		reports = append(reports, *report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Scores.Overall != reports[j].Scores.Overall {
			return reports[i].Scores.Overall > reports[j].Scores.Overall
		}
		return reports[i].Name < reports[j].Name
	})

	return reports, nil
}
