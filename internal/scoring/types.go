package scoring

import "time"

// Milestone is a discrete payment/delivery checkpoint on a project.
type Milestone struct {
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

// ClientRating is the aggregate reputation of the counterparty.
type ClientRating struct {
	AverageScore *float64 `json:"averageScore"` // 0-5, null when the platform has no data
	TotalReviews int      `json:"totalReviews"`
}

// ProjectRecord is a read-only snapshot of the contract/financial attributes
// the engine evaluates. Every field is optional: empty strings and nil
// pointers mean "not filled in" and degrade to the lowest sub-score tier
// instead of failing.
type ProjectRecord struct {
	DeliverableDetails        string        `json:"deliverableDetails,omitempty"`
	AcceptanceCriteriaDetails string        `json:"acceptanceCriteriaDetails,omitempty"`
	ScopeOfWorkIncluded       string        `json:"scopeOfWork_included,omitempty"`
	ScopeOfWorkExcluded       string        `json:"scopeOfWork_excluded,omitempty"`
	Milestones                []Milestone   `json:"milestones,omitempty"`
	AverageResponseTime       *float64      `json:"averageResponseTime,omitempty"` // hours
	CommunicationLogCount     int           `json:"communicationLogCount,omitempty"`
	HasDispute                bool          `json:"hasDispute,omitempty"`
	AgreementDocLink          string        `json:"agreementDocLink,omitempty"`
	AdditionalWorkTerms       string        `json:"additionalWorkTerms,omitempty"`
	ClientRating              *ClientRating `json:"clientRating,omitempty"`
	ContractorResellingRisk   *float64      `json:"contractorResellingRisk,omitempty"` // 0-100
	FundsDeposited            float64       `json:"fundsDeposited"`
	TotalAmount               float64       `json:"totalAmount"`
	DueDate                   string        `json:"dueDate,omitempty"`
}

// ScoreResult is one axis of the trust evaluation. Score is always the sum of
// Details clamped to [0,100], Details carries every sub-factor key even when
// it scored zero, and Recommendations holds exactly one tier string.
type ScoreResult struct {
	Score           int            `json:"score"`
	Details         map[string]int `json:"details"`
	Warnings        []string       `json:"warnings"`
	Recommendations []string       `json:"recommendations"`
}

// CombinedScore bundles both axes for a single project.
type CombinedScore struct {
	MScore ScoreResult `json:"mScore"`
	SScore ScoreResult `json:"sScore"`
}

// Sub-factor keys for ScoreResult.Details.
const (
	DetailContractClarity      = "contractClarity"
	DetailMilestoneDefinition  = "milestoneDefinition"
	DetailCommunicationQuality = "communicationQuality"
	DetailTransparency         = "transparency"

	DetailEscrowStatus    = "escrowStatus"
	DetailPaymentHistory  = "paymentHistory"
	DetailBudgetAdequacy  = "budgetAdequacy"
	DetailDeadlineRealism = "deadlineRealism"
)

// Warning messages, appended in evaluation order.
const (
	WarnDeliverablesMissing   = "deliverables not filled in"
	WarnDeliverablesThin      = "deliverables insufficiently detailed"
	WarnAcceptanceMissing     = "acceptance criteria not filled in"
	WarnAcceptanceThin        = "acceptance criteria insufficiently detailed"
	WarnExcludedScopeMissing  = "excluded scope undefined"
	WarnScopeUnclear          = "scope of work unclear"
	WarnMilestonesMissing     = "milestones not set"
	WarnMilestonesThin        = "some milestones insufficiently described"
	WarnDisputeOnRecord       = "past dispute on record"
	WarnRatingLow             = "counterparty rating is low"
	WarnResellingRiskHigh     = "reselling risk is high"
	WarnEscrowPartiallyFunded = "only partially funded"
	WarnEscrowUnfunded        = "escrow not funded (high risk)"
	WarnLittleTrackRecord     = "counterparty has little track record"
	WarnNoRatingInfo          = "no counterparty rating information"
	WarnBudgetMismatch        = "budget and milestone total mismatch"
	WarnDeadlineShort         = "deadline is short"
	WarnDeadlineVeryShort     = "deadline is very short"
)

// Recommendation tiers. Exactly one is emitted per result.
const (
	RecommendMoralRevise  = "major contract revision needed: define deliverables, acceptance criteria, and scope in detail"
	RecommendMoralClarify = "clarify the contract further to reduce dispute risk"
	RecommendMoralGood    = "good contract; adding milestone detail would give extra peace of mind"
	RecommendMoralClear   = "very clear contract; proceed with confidence"

	RecommendSurvivalWithhold = "high payment risk: withhold work until escrow is fully funded"
	RecommendSurvivalReview   = "payment risk exists; review contract terms carefully"
	RecommendSurvivalVerify   = "generally safe; verify payment at each milestone"
	RecommendSurvivalSafe     = "very safe project; proceed with confidence"
)

// dueDateLayouts are tried in order when parsing ProjectRecord.DueDate.
var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDueDate(s string) (time.Time, bool) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// newResult finalizes a score: sums the sub-factor points, clamps to [0,100]
// and attaches the single recommendation tier for that total.
func newResult(details map[string]int, warnings []string, recommend func(int) string) ScoreResult {
	total := 0
	for _, points := range details {
		total += points
	}
	score := clampScore(total)

	return ScoreResult{
		Score:           score,
		Details:         details,
		Warnings:        warnings,
		Recommendations: []string{recommend(score)},
	}
}
