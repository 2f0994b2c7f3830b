package scoring

import (
	"math"
	"strconv"
	"strings"
)

const (
	// EngineVersion tracks the grading model for debugging and re-scoring.
	// Bump this when changing grading rules significantly.
	EngineVersion = "2026-v1"

	// Category weights for the overall score. Safety dominates because a
	// cheap quote full of non-impact product is the worst outcome for a
	// homeowner in a wind-borne debris region.
	weightSafety    = 0.30
	weightScope     = 0.25
	weightPrice     = 0.20
	weightFinePrint = 0.15
	weightWarranty  = 0.10

	// Homeowner-facing lists are capped so the report stays readable.
	maxListEntries = 6

	// priceUnknown is the display value when price per opening cannot be
	// computed.
	priceUnknown = "N/A"

	// Price display is rounded to the nearest 50 dollars. Exact division
	// results suggest a precision the extraction doesn't have.
	priceRoundingStep = 50

	// basePriceScore applies when the market bands cannot be evaluated.
	basePriceScore = 40
)

// ScoreReport is the graded result shown to the homeowner.
type ScoreReport struct {
	SafetyScore     int      `json:"safetyScore"`
	ScopeScore      int      `json:"scopeScore"`
	PriceScore      int      `json:"priceScore"`
	FinePrintScore  int      `json:"finePrintScore"`
	WarrantyScore   int      `json:"warrantyScore"`
	OverallScore    int      `json:"overallScore"`
	PricePerOpening string   `json:"pricePerOpening"`
	Warnings        []string `json:"warnings"`
	MissingItems    []string `json:"missingItems"`
	Summary         string   `json:"summary"`
}

// findings accumulates homeowner-facing warnings and missing items in the
// order the grading steps generate them.
type findings struct {
	warnings []string
	missing  []string
}

func (f *findings) warn(message string) {
	f.warnings = append(f.warnings, message)
}

func (f *findings) miss(message string) {
	f.missing = append(f.missing, message)
}

// Score grades a quote from its extracted signals. openingCountHint is the
// homeowner's own answer for how many openings the project covers; it is
// used only when the document itself doesn't state a count.
func Score(sig Signals, openingCountHint *int) ScoreReport {
	if !sig.IsValidQuote {
		return notAQuoteReport()
	}

	f := &findings{warnings: []string{}, missing: []string{}}

	rawPerOpening, displayPerOpening := pricePerOpening(sig, openingCountHint, f)

	safety := scoreSafety(sig, f)
	scope := scoreScope(sig, f)
	finePrint := scoreFinePrint(sig, f)
	warranty := scoreWarranty(sig, f)
	price := scorePrice(rawPerOpening, sig.HasPremiumIndicators, f)

	overall := clampScore(
		weightSafety*float64(safety) +
			weightScope*float64(scope) +
			weightPrice*float64(price) +
			weightFinePrint*float64(finePrint) +
			weightWarranty*float64(warranty),
	)

	return ScoreReport{
		SafetyScore:     safety,
		ScopeScore:      scope,
		PriceScore:      price,
		FinePrintScore:  finePrint,
		WarrantyScore:   warranty,
		OverallScore:    overall,
		PricePerOpening: displayPerOpening,
		Warnings:        truncateList(f.warnings),
		MissingItems:    truncateList(f.missing),
		Summary:         selectSummary(safety, scope, price, finePrint, warranty, overall),
	}
}

// notAQuoteReport is returned when the document reader judged the upload
// not to be a window/door quote. Nothing is graded.
func notAQuoteReport() ScoreReport {
	return ScoreReport{
		PricePerOpening: priceUnknown,
		Warnings:        []string{warnNotAQuote},
		MissingItems:    []string{},
		Summary:         summaryNotGraded,
	}
}

// pricePerOpening derives the per-opening price. The document's own count
// wins over the homeowner's hint. The returned raw value feeds the market
// bands; the display value is rounded to the nearest 50 dollars.
func pricePerOpening(sig Signals, hint *int, f *findings) (*float64, string) {
	count := sig.OpeningCountEstimate
	if count == nil {
		count = hint
	}

	if sig.TotalPrice == nil || count == nil || *count <= 0 {
		f.miss(missingPricePerOpening)
		return nil, priceUnknown
	}

	raw := *sig.TotalPrice / float64(*count)
	rounded := math.Round(raw/priceRoundingStep) * priceRoundingStep
	return &raw, formatDollars(int64(rounded))
}

// scoreSafety grades impact protection evidence. Additions reward explicit
// compliance proof; caps only ever pull the score down.
func scoreSafety(sig Signals, f *findings) int {
	score := 0.0

	if sig.MentionsImpactRating {
		score += 25
	}
	if sig.HasProductApprovalNumber {
		score += 25
	}
	if sig.MentionsLaminatedGlass {
		score += 25
	}
	if sig.HasGlassSpecDetail {
		score += 10
	}

	// Tempered glass alone is not impact protection.
	if sig.TemperedGlassOnly {
		score = math.Min(score, 30)
		f.warn(warnTemperedOnly)
	}
	if sig.HasNonImpactLanguage {
		score = math.Min(score, 25)
		f.warn(warnNonImpactLanguage)
	}

	// Without any compliance evidence the score cannot be trusted upward.
	if !sig.MentionsImpactRating && !sig.HasProductApprovalNumber && !sig.MentionsLaminatedGlass {
		score = math.Min(score, 40)
		f.miss(missingImpactEvidence)
	}

	return clampScore(score)
}

// scoreScope grades how completely the work is described. The seven
// additive components sum to exactly 100 for a fully specified quote.
func scoreScope(sig Signals, f *findings) int {
	score := 0.0

	if sig.MentionsPermit {
		score += 20
	}
	if sig.HasRemovalDetail {
		score += 15
	}
	if sig.HasSpecificMaterials {
		score += 10
	}
	if sig.MentionsWallRepair {
		score += 15
	}
	if sig.HasFinishDetail {
		score += 10
	}
	if sig.MentionsCleanup {
		score += 15
	}
	if sig.HasBrandClarity {
		score += 15
	}

	if sig.SubjectToRemeasure {
		score = math.Max(score-30, 0)
		f.warn(warnSubjectToChange)
	}

	// Wall repair disputes are the most common post-install surprise.
	if sig.ExcludesRepairs || !sig.MentionsWallRepair {
		f.miss(missingWallRepair)
	}

	return clampScore(score)
}

// scoreFinePrint grades payment terms and contract language. Modifiers
// apply in a fixed order; a deposit above 40% zeroes the category no
// matter what else the document promises.
func scoreFinePrint(sig Signals, f *findings) int {
	score := 60.0
	depositTooHigh := false

	if sig.DepositPercentage != nil {
		switch pct := *sig.DepositPercentage; {
		case pct > 40:
			depositTooHigh = true
			score = 0
			f.warn(warnDepositTooHigh)
		case pct >= 10:
			score = math.Min(score+20, 80)
		default:
			score = math.Min(score+40, 100)
		}
	} else {
		f.miss(missingDepositTerms)
	}

	if sig.FinalPaymentBeforeCompletion {
		score = math.Min(score, 25)
		f.warn(warnFinalPaymentUpfront)
	} else if sig.HasSafePaymentTerms {
		score = math.Min(score+10, 100)
	}

	if trapCount := len(sig.ContractTraps); trapCount > 0 {
		score -= math.Min(float64(trapCount)*10, 30)
		f.warn(trapWarning(sig.ContractTraps))
	}

	if depositTooHigh {
		score = 0
	}

	return clampScore(score)
}

// scoreWarranty grades warranty coverage. Bonuses stack and are clamped,
// so a lifetime transferable labor warranty maxes the category.
func scoreWarranty(sig Signals, f *findings) int {
	score := 0.0

	if sig.MentionsWarranty {
		score += 30
	}
	if sig.HasLaborWarranty {
		score += 40
	}
	if sig.WarrantyYears != nil && *sig.WarrantyYears > 1 {
		score += 15
	}
	if sig.HasLifetimeWarranty {
		score += 15
	}
	if sig.HasTransferableWarranty {
		score += 10
	}

	if !sig.MentionsWarranty {
		f.miss(missingWarranty)
	}

	return clampScore(score)
}

// scorePrice grades the raw price per opening against market bands.
// The sweet spot is 1200 to 1800 dollars per opening; below 1000 reads as
// bait pricing, far above 2500 needs premium product to justify it.
func scorePrice(rawPerOpening *float64, premiumIndicators bool, f *findings) int {
	if rawPerOpening == nil {
		f.miss(missingPriceEvaluation)
		return clampScore(basePriceScore)
	}

	score := 0.0
	switch value := *rawPerOpening; {
	case value < 1000:
		score = 40
	case value < 1200:
		score = 65
	case value <= 1800:
		score = 95
	case value <= 2500:
		score = 75
	default:
		score = 55
		if premiumIndicators {
			score = math.Min(score+10, 75)
		}
	}

	return clampScore(score)
}

// selectSummary picks the single summary sentence. Weak-category checks
// run first in a fixed priority order; a tie at the minimum resolves to
// the earlier category in that order.
func selectSummary(safety, scope, price, finePrint, warranty, overall int) string {
	lowest := min(safety, finePrint, scope, warranty, price)

	switch {
	case safety == lowest && safety < 50:
		return summarySafetyWeak
	case finePrint == lowest && finePrint < 50:
		return summaryFinePrintWeak
	case scope == lowest && scope < 50:
		return summaryScopeWeak
	case warranty == lowest && warranty < 50:
		return summaryWarrantyWeak
	case price == lowest && price < 60:
		return summaryPriceOutlier
	case overall >= 80:
		return summaryStrong
	case overall >= 60:
		return summaryAcceptable
	default:
		return summaryConcerns
	}
}

// trapWarning lists up to the first three trap descriptions verbatim.
func trapWarning(traps []string) string {
	shown := traps
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return warnContractTrapsPrefix + strings.Join(shown, "; ")
}

func truncateList(items []string) []string {
	if len(items) > maxListEntries {
		return items[:maxListEntries]
	}
	return items
}

// formatDollars renders a whole-dollar amount with thousands separators,
// e.g. 1500 -> "$1,500".
func formatDollars(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}

	return sign + "$" + b.String()
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
