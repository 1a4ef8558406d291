package scoring

import (
	"math"
	"time"
)

// CalculateSScore evaluates the survival axis of a project: payment and
// delivery risk from the escrow perspective. Deadline realism is judged
// against the current wall clock; use CalculateSScoreAt for a fixed clock.
func CalculateSScore(project ProjectRecord) ScoreResult {
	return CalculateSScoreAt(project, time.Now())
}

// CalculateSScoreAt is CalculateSScore with an explicit evaluation time,
// which makes deadline scoring deterministic for a given input.
func CalculateSScoreAt(project ProjectRecord, now time.Time) ScoreResult {
	warnings := []string{}

	escrow := 0
	switch {
	case project.FundsDeposited >= project.TotalAmount && project.TotalAmount > 0:
		escrow = 40
	case project.FundsDeposited > 0:
		escrow = 20
		warnings = append(warnings, WarnEscrowPartiallyFunded)
	default:
		warnings = append(warnings, WarnEscrowUnfunded)
	}

	history := 0
	if project.ClientRating == nil {
		warnings = append(warnings, WarnNoRatingInfo)
	} else {
		// A missing average is unknown data, not a bad rating; the low-rating
		// warning is reserved for a score that was actually reported.
		if project.ClientRating.AverageScore == nil {
			warnings = append(warnings, WarnNoRatingInfo)
		} else {
			switch avg := *project.ClientRating.AverageScore; {
			case avg >= 4.5:
				history += 15
			case avg >= 4.0:
				history += 10
			case avg >= 3.5:
				history += 5
			default:
				warnings = append(warnings, WarnRatingLow)
			}
		}

		switch reviews := project.ClientRating.TotalReviews; {
		case reviews >= 10:
			history += 15
		case reviews >= 5:
			history += 10
		case reviews >= 2:
			history += 5
		default:
			warnings = append(warnings, WarnLittleTrackRecord)
		}
	}

	budget := 0
	if project.TotalAmount > 0 {
		budget = 10
		if len(project.Milestones) > 0 {
			var milestoneTotal float64
			for _, m := range project.Milestones {
				milestoneTotal += m.Amount
			}
			switch diff := math.Abs(project.TotalAmount - milestoneTotal); {
			case diff == 0:
				budget += 10
			case diff < project.TotalAmount*0.1:
				budget += 5
			default:
				warnings = append(warnings, WarnBudgetMismatch)
			}
		}
	}

	deadline := 0
	if project.DueDate != "" {
		if due, ok := parseDueDate(project.DueDate); ok {
			switch days := daysUntil(due, now); {
			case days >= 14:
				deadline = 10
			case days >= 7:
				deadline = 7
			case days >= 3:
				deadline = 4
				warnings = append(warnings, WarnDeadlineShort)
			case days >= 0:
				warnings = append(warnings, WarnDeadlineVeryShort)
			}
			// past-due dates score zero without a warning
		}
	}

	details := map[string]int{
		DetailEscrowStatus:    escrow,
		DetailPaymentHistory:  history,
		DetailBudgetAdequacy:  budget,
		DetailDeadlineRealism: deadline,
	}

	return newResult(details, warnings, survivalRecommendation)
}

// daysUntil counts calendar days between now and the due date, rounding
// partial days up so "tomorrow" is one day out.
func daysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

func survivalRecommendation(score int) string {
	switch {
	case score >= 80:
		return RecommendSurvivalSafe
	case score >= 60:
		return RecommendSurvivalVerify
	case score >= 40:
		return RecommendSurvivalReview
	default:
		return RecommendSurvivalWithhold
	}
}
