package scoring

// StrengthScore combines the bench, squat and deadlift to bodyweight ratios.
func StrengthScore(c StrengthCalibration, s StrengthMetrics, bodyweight float64) float64 {
	return Clamp(weightedMean(
		[]float64{
			c.Bench.At(StrengthToBodyweightRatio(s.Bench, bodyweight)),
			c.Squat.At(StrengthToBodyweightRatio(s.Squat, bodyweight)),
			c.Deadlift.At(StrengthToBodyweightRatio(s.Deadlift, bodyweight)),
		},
		[]float64{c.BenchWeight, c.SquatWeight, c.DeadliftWeight},
	))
}

// EnduranceScore rewards a high VO2max and a low resting heart rate.
func EnduranceScore(c EnduranceCalibration, m CardioMetrics) float64 {
	return Clamp(weightedMean(
		[]float64{c.VO2Max.At(m.VO2Max), c.RestingHR.At(m.RestingHR)},
		[]float64{c.VO2MaxWeight, c.RestingHRWeight},
	))
}

// BodyCompositionScore rewards low body fat (down to the curve floor), a high
// FFMI and lean mass gained since the previous measurement. Without a previous
// measurement the trend is left out and the other weights are renormalized.
func BodyCompositionScore(c BodyCompositionCalibration, m BodyComposition, heightM float64, unit Unit) float64 {
	leanMassKg := ToKilograms(m.LeanMass, unit)

	trendWeight := c.LeanMassTrendWeight
	var trendScore float64
	if m.PreviousLeanMass > 0 {
		trendScore = c.LeanMassTrend.At(leanMassKg - ToKilograms(m.PreviousLeanMass, unit))
	} else {
		trendWeight = 0
	}

	return Clamp(weightedMean(
		[]float64{
			c.BodyFat.At(m.BodyFat),
			c.FFMI.At(FFMI(leanMassKg, heightM)),
			trendScore,
		},
		[]float64{c.BodyFatWeight, c.FFMIWeight, trendWeight},
	))
}

// RecoveryScore rewards high readiness and high HRV.
func RecoveryScore(c RecoveryCalibration, m RecoveryMetrics) float64 {
	return Clamp(weightedMean(
		[]float64{c.Readiness.At(m.Readiness), c.HRV.At(m.HRV)},
		[]float64{c.ReadinessWeight, c.HRVWeight},
	))
}

// PowerOutputScore maps peak watts per kilogram of bodyweight.
func PowerOutputScore(c PowerOutputCalibration, p PowerMetrics, bodyweightKg float64) float64 {
	return c.PowerToWeight.At(PowerToWeightRatio(p.PeakPower, bodyweightKg))
}

// TechniqueScore is the coach-assigned rating, clamped. It is never derived
// from other metrics.
func TechniqueScore(rating float64) float64 {
	return Clamp(rating)
}
