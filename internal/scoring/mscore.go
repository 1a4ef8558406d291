package scoring

// CalculateMScore evaluates the moral axis of a project: contractual clarity,
// milestone rigor, communication health, and transparency, as a 0-100 score.
// Missing fields never fail the call; they score the lowest tier and usually
// add a warning.
func CalculateMScore(project ProjectRecord) ScoreResult {
	warnings := []string{}

	clarity := 0
	switch n := len(project.DeliverableDetails); {
	case n == 0:
		warnings = append(warnings, WarnDeliverablesMissing)
	case n > 200:
		clarity += 15
	case n > 100:
		clarity += 10
	case n > 50:
		clarity += 5
	default:
		warnings = append(warnings, WarnDeliverablesThin)
	}

	switch n := len(project.AcceptanceCriteriaDetails); {
	case n == 0:
		warnings = append(warnings, WarnAcceptanceMissing)
	case n > 150:
		clarity += 15
	case n > 75:
		clarity += 10
	case n > 30:
		clarity += 5
	default:
		warnings = append(warnings, WarnAcceptanceThin)
	}

	switch {
	case len(project.ScopeOfWorkIncluded) > 30 && len(project.ScopeOfWorkExcluded) > 20:
		clarity += 10
	case project.ScopeOfWorkIncluded != "":
		clarity += 5
		warnings = append(warnings, WarnExcludedScopeMissing)
	default:
		warnings = append(warnings, WarnScopeUnclear)
	}

	milestones := 0
	if len(project.Milestones) > 0 {
		milestones = 10

		described := 0
		for _, m := range project.Milestones {
			if len(m.Description) > 30 {
				described++
			}
		}
		switch {
		case described == len(project.Milestones):
			milestones += 10
		case described > 0:
			milestones += 5
			warnings = append(warnings, WarnMilestonesThin)
		}
	} else {
		warnings = append(warnings, WarnMilestonesMissing)
	}

	communication := 0
	if project.AverageResponseTime != nil {
		switch hours := *project.AverageResponseTime; {
		case hours < 24:
			communication += 10
		case hours < 48:
			communication += 5
		}
	} else {
		// unknown response time is neutral, not penalized
		communication += 5
	}
	if project.CommunicationLogCount > 0 {
		communication += 5
	}
	if project.HasDispute {
		warnings = append(warnings, WarnDisputeOnRecord)
	} else {
		communication += 5
	}

	transparency := 0
	if project.AgreementDocLink != "" {
		transparency += 5
	}
	if len(project.AdditionalWorkTerms) > 20 {
		transparency += 5
	}
	if project.ClientRating != nil && project.ClientRating.AverageScore != nil {
		switch avg := *project.ClientRating.AverageScore; {
		case avg >= 4.5:
			transparency += 5
		case avg < 3.5:
			warnings = append(warnings, WarnRatingLow)
		}
	}
	if project.ContractorResellingRisk != nil {
		switch risk := *project.ContractorResellingRisk; {
		case risk < 20:
			transparency += 5
		case risk > 50:
			warnings = append(warnings, WarnResellingRiskHigh)
		}
	}

	details := map[string]int{
		DetailContractClarity:      clarity,
		DetailMilestoneDefinition:  milestones,
		DetailCommunicationQuality: communication,
		DetailTransparency:         transparency,
	}

	return newResult(details, warnings, moralRecommendation)
}

func moralRecommendation(score int) string {
	switch {
	case score >= 80:
		return RecommendMoralClear
	case score >= 60:
		return RecommendMoralGood
	case score >= 40:
		return RecommendMoralClarify
	default:
		return RecommendMoralRevise
	}
}
