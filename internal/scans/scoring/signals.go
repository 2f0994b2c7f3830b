// Package scoring grades window/door replacement quotes from extracted
// document signals. The engine is pure: no I/O, no randomness, the same
// signals always produce the same report.
package scoring

// Signals is the contract produced by the document reader. The engine
// trusts these flags as given; judging whether the document really is a
// quote happens upstream and lands in IsValidQuote.
type Signals struct {
	IsValidQuote   bool    `json:"isValidQuote"`
	ValidityReason *string `json:"validityReason,omitempty"`

	// Numeric facts. Nil means the document never stated the value.
	TotalPrice           *float64 `json:"totalPrice,omitempty"`
	OpeningCountEstimate *int     `json:"openingCountEstimate,omitempty"`
	DepositPercentage    *float64 `json:"depositPercentage,omitempty"`
	WarrantyYears        *float64 `json:"warrantyYears,omitempty"`

	// ContractTraps holds short descriptions of one-sided contract
	// language found in the document ("cancellation fee", "binding
	// arbitration", ...).
	ContractTraps []string `json:"contractTraps,omitempty"`

	// Safety / compliance
	MentionsImpactRating     bool `json:"mentionsImpactRating"`
	HasProductApprovalNumber bool `json:"hasProductApprovalNumber"`
	MentionsLaminatedGlass   bool `json:"mentionsLaminatedGlass"`
	HasGlassSpecDetail       bool `json:"hasGlassSpecDetail"`
	TemperedGlassOnly        bool `json:"temperedGlassOnly"`
	HasNonImpactLanguage     bool `json:"hasNonImpactLanguage"`

	// Scope of work
	MentionsPermit       bool `json:"mentionsPermit"`
	HasRemovalDetail     bool `json:"hasRemovalDetail"`
	HasSpecificMaterials bool `json:"hasSpecificMaterials"`
	MentionsWallRepair   bool `json:"mentionsWallRepair"`
	HasFinishDetail      bool `json:"hasFinishDetail"`
	MentionsCleanup      bool `json:"mentionsCleanup"`
	HasBrandClarity      bool `json:"hasBrandClarity"`
	SubjectToRemeasure   bool `json:"subjectToRemeasure"`
	ExcludesRepairs      bool `json:"excludesRepairs"`

	// Payment / fine print
	FinalPaymentBeforeCompletion bool `json:"finalPaymentBeforeCompletion"`
	HasSafePaymentTerms          bool `json:"hasSafePaymentTerms"`

	// Warranty
	MentionsWarranty        bool `json:"mentionsWarranty"`
	HasLaborWarranty        bool `json:"hasLaborWarranty"`
	HasLifetimeWarranty     bool `json:"hasLifetimeWarranty"`
	HasTransferableWarranty bool `json:"hasTransferableWarranty"`

	// Pricing qualifiers
	HasPremiumIndicators bool `json:"hasPremiumIndicators"`
}
