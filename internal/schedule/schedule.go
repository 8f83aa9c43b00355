// Package schedule maps experience indexes to their question budget and
// the global question-index window each experience owns. These functions
// are the single source of truth for interview progression; callers must
// not re-derive windows by counting rows.
package schedule

// QuestionsPerExperience is the flat budget allotted to every experience.
const QuestionsPerExperience = 3

// TotalQuestions returns the question budget for an interview over n experiences.
func TotalQuestions(n int) int {
	if n <= 0 {
		return 0
	}
	return QuestionsPerExperience * n
}

// QuestionsUpTo returns the cumulative question count through experience i (0-based).
func QuestionsUpTo(i int) int {
	if i < 0 {
		return 0
	}
	return QuestionsPerExperience * (i + 1)
}

// RangeFor returns the inclusive global-index window of the questions
// belonging to experience i.
func RangeFor(i int) (lo, hi int) {
	lo = QuestionsPerExperience * i
	hi = lo + QuestionsPerExperience - 1
	return lo, hi
}

// ExperienceFor returns the experience index owning the given global
// question index.
func ExperienceFor(index int) int {
	if index < 0 {
		return 0
	}
	return index / QuestionsPerExperience
}

// A tiered budget that front-loads extra questions onto the first and
// most recent experiences shipped disabled alongside the flat one. It is
// kept here until a decision is made on whether it was meant to go live.
//
// func tieredBudget(n int) []int {
// 	out := make([]int, n)
// 	for i := range out {
// 		switch {
// 		case i == 0:
// 			out[i] = 5
// 		case i <= 2:
// 			out[i] = 4
// 		default:
// 			out[i] = 2
// 		}
// 	}
// 	return out
// }
