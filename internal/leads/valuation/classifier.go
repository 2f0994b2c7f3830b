// Package valuation assigns a dollar value and tier to a captured lead
// from its qualification answers. The classifier is pure: no I/O, the
// same factors always produce the same result.
package valuation

import "math"

// Tier buckets leads for routing and ad-platform reporting.
type Tier string

const (
	TierDisqualified Tier = "disqualified"
	TierCold         Tier = "cold"
	TierWarm         Tier = "warm"
	TierHot          Tier = "hot"
	TierWhale        Tier = "whale"
)

// Project size answers from the funnel.
const (
	SizeSmall      = "small"
	SizeMedium     = "medium"
	SizeLarge      = "large"
	SizeEntireHome = "entire_home"
)

// Urgency answers from the funnel.
const (
	UrgencyASAP        = "asap"
	UrgencySoon        = "soon"
	UrgencyPlanning    = "planning"
	UrgencyResearching = "researching"
)

// verifiedBonusRate is the uplift for a lead with a confirmed phone or
// email. Verified contacts close at a much higher rate, so ad platforms
// should bid them up.
const verifiedBonusRate = 0.20

const verifiedBonusNote = "Verified contact adds a 20% value bonus."

// QualificationFactors is everything the funnel knows about a lead at
// classification time. Nil IsHomeowner means the question was never
// answered; empty strings mean the same for size and urgency.
type QualificationFactors struct {
	IsHomeowner *bool
	ProjectSize string
	Urgency     string
	Verified    bool
}

// ValueResult is the classified outcome stored on the lead.
type ValueResult struct {
	Value     int
	Tier      Tier
	Reasoning string
}

// Classify maps qualification factors to a lead value. Rules apply in a
// fixed priority order; the first match wins. The verification bonus is
// applied last and never changes the tier.
func Classify(factors QualificationFactors) ValueResult {
	result := baseValue(factors)

	if factors.Verified && result.Value > 0 {
		result.Value += int(math.Round(float64(result.Value) * verifiedBonusRate))
		result.Reasoning += " " + verifiedBonusNote
	}

	return result
}

func baseValue(factors QualificationFactors) ValueResult {
	if factors.IsHomeowner == nil {
		return ValueResult{Value: 10, Tier: TierCold, Reasoning: "Homeowner status unknown; treated as low value until confirmed."}
	}
	if !*factors.IsHomeowner {
		return ValueResult{Value: 0, Tier: TierDisqualified, Reasoning: "Not a homeowner; replacement decisions sit with the property owner."}
	}

	size, urgency := factors.ProjectSize, factors.Urgency

	switch {
	case size == SizeEntireHome && urgency == UrgencyASAP:
		return ValueResult{Value: 500, Tier: TierWhale, Reasoning: "Homeowner replacing every opening as soon as possible."}
	case size == SizeEntireHome && urgency == UrgencySoon:
		return ValueResult{Value: 300, Tier: TierWhale, Reasoning: "Homeowner replacing every opening in the next few months."}
	case size == SizeLarge && urgency == UrgencyASAP:
		return ValueResult{Value: 200, Tier: TierHot, Reasoning: "Homeowner with a large project and an immediate timeline."}
	case size == SizeMedium && urgency == UrgencyASAP:
		return ValueResult{Value: 150, Tier: TierHot, Reasoning: "Homeowner with a medium project and an immediate timeline."}
	case size == SizeLarge && urgency == UrgencySoon:
		return ValueResult{Value: 150, Tier: TierHot, Reasoning: "Homeowner with a large project in the next few months."}
	case size == SizeMedium && urgency == UrgencySoon:
		return ValueResult{Value: 100, Tier: TierWarm, Reasoning: "Homeowner with a medium project in the next few months."}
	case urgency == UrgencyPlanning:
		return ValueResult{Value: 50, Tier: TierWarm, Reasoning: "Homeowner still planning; real intent without a near-term timeline."}
	case size == SizeSmall:
		return ValueResult{Value: 25, Tier: TierCold, Reasoning: "Homeowner with a small project."}
	case urgency == UrgencyResearching || urgency == "":
		return ValueResult{Value: 15, Tier: TierCold, Reasoning: "Homeowner still researching with no timeline."}
	default:
		return ValueResult{Value: 10, Tier: TierCold, Reasoning: "Homeowner without a clear project size or timeline."}
	}
}
