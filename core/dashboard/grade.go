package dashboard

// Grade is a letter grade of the Bangladesh grading scale.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeB      Grade = "B"
	GradeC      Grade = "C"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

var gradeBands = []struct {
	min   float64
	grade Grade
}{
	{80, GradeAPlus},
	{70, GradeA},
	{60, GradeAMinus},
	{50, GradeB},
	{40, GradeC},
	{33, GradeD},
}

// Grades lists every grade, best first.
var Grades = []Grade{GradeAPlus, GradeA, GradeAMinus, GradeB, GradeC, GradeD, GradeF}

// GradeFor returns the grade of an efficiency percentage.
func GradeFor(efficiency float64) Grade {
	for _, b := range gradeBands {
		if efficiency >= b.min {
			return b.grade
		}
	}
	return GradeF
}

// GradeCount is how many students got a grade.
type GradeCount struct {
	Grade Grade `json:"grade"`
	Count int   `json:"count"`
}

// distribution counts the grades of `efficiencies`, listing every grade.
func distribution(efficiencies []float64) []GradeCount {
	counts := make(map[Grade]int, len(Grades))
	for _, eff := range efficiencies {
		counts[GradeFor(eff)]++
	}
	dist := make([]GradeCount, 0, len(Grades))
	for _, g := range Grades {
		dist = append(dist, GradeCount{Grade: g, Count: counts[g]})
	}
	return dist
}
