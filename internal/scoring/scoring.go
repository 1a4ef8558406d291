// Package scoring converts a project's contract and financial attributes into
// two bounded trust scores: the moral score (contract fairness and clarity)
// and the survival score (payment safety). Both are pure functions over the
// input record: no I/O, no shared state, safe for concurrent callers.
package scoring

import "time"

// CalculateScores evaluates both axes for a project.
func CalculateScores(project ProjectRecord) CombinedScore {
	return CalculateScoresAt(project, time.Now())
}

// CalculateScoresAt evaluates both axes with an explicit clock for the
// survival score's deadline factor.
func CalculateScoresAt(project ProjectRecord, now time.Time) CombinedScore {
	return CombinedScore{
		MScore: CalculateMScore(project),
		SScore: CalculateSScoreAt(project, now),
	}
}
