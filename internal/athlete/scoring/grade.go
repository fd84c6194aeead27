package scoring

type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// GradeFor maps an overall score to a grade using the cutoffs, highest first.
// Validated cutoffs end at 0, so the last one catches everything. Without
// cutoffs every score is an F.
func GradeFor(overall float64, cutoffs []GradeCutoff) Grade {
	if len(cutoffs) == 0 {
		return GradeF
	}
	overall = Clamp(overall)
	for _, c := range cutoffs {
		if overall >= c.Min {
			return c.Grade
		}
	}
	return cutoffs[len(cutoffs)-1].Grade
}

// Rank returns the position of g in the cutoffs, 0 being the best grade.
// Unknown grades rank last.
func (g Grade) Rank(cutoffs []GradeCutoff) int {
	for i, c := range cutoffs {
		if c.Grade == g {
			return i
		}
	}
	return len(cutoffs)
}
