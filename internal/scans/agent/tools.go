package agent

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"quotescan_backend/internal/scans/scoring"
)

// SaveQuoteSignalsInput is what the model reports after reading the
// document. Field semantics mirror scoring.Signals; the description tags
// are what the model sees in the tool schema.
type SaveQuoteSignalsInput struct {
	IsValidQuote   bool   `json:"isValidQuote" description:"true only if the document is a window or door replacement quote or proposal"`
	ValidityReason string `json:"validityReason,omitempty" description:"If not a valid quote, one sentence saying what the document appears to be instead"`

	TotalPrice           *float64 `json:"totalPrice,omitempty" description:"Total contract price in dollars, only if the document states one"`
	OpeningCountEstimate *int     `json:"openingCountEstimate,omitempty" description:"Number of windows and doors the quote covers, only if the document states or itemizes them"`
	DepositPercentage    *float64 `json:"depositPercentage,omitempty" description:"Deposit as a percent of total (0-100), only if payment terms state one"`
	WarrantyYears        *float64 `json:"warrantyYears,omitempty" description:"Warranty duration in years if a specific number is given"`

	ContractTraps []string `json:"contractTraps,omitempty" description:"Short descriptions of one-sided contract language, e.g. 'cancellation fee', 'binding arbitration'"`

	MentionsImpactRating     bool `json:"mentionsImpactRating" description:"Document mentions impact rating, hurricane rating, or wind-borne debris compliance"`
	HasProductApprovalNumber bool `json:"hasProductApprovalNumber" description:"Document cites a product approval number (FL# or NOA)"`
	MentionsLaminatedGlass   bool `json:"mentionsLaminatedGlass" description:"Document specifies laminated glass"`
	HasGlassSpecDetail       bool `json:"hasGlassSpecDetail" description:"Document gives glass makeup detail such as interlayer or thickness"`
	TemperedGlassOnly        bool `json:"temperedGlassOnly" description:"Tempered glass is the only glass safety language present"`
	HasNonImpactLanguage     bool `json:"hasNonImpactLanguage" description:"Document contains non-impact product language for any opening"`

	MentionsPermit       bool `json:"mentionsPermit" description:"Permit handling is mentioned"`
	HasRemovalDetail     bool `json:"hasRemovalDetail" description:"Removal and disposal of existing windows/doors is described"`
	HasSpecificMaterials bool `json:"hasSpecificMaterials" description:"Frame material or product series is specified"`
	MentionsWallRepair   bool `json:"mentionsWallRepair" description:"Stucco, drywall, or wall repair is included"`
	HasFinishDetail      bool `json:"hasFinishDetail" description:"Caulking, sealing, or finish work is described"`
	MentionsCleanup      bool `json:"mentionsCleanup" description:"Debris removal or cleanup is mentioned"`
	HasBrandClarity      bool `json:"hasBrandClarity" description:"Manufacturer brand and product line are named"`
	SubjectToRemeasure   bool `json:"subjectToRemeasure" description:"Price is marked subject to change after remeasure or field verification"`
	ExcludesRepairs      bool `json:"excludesRepairs" description:"Document explicitly excludes wall, stucco, or drywall repairs"`

	FinalPaymentBeforeCompletion bool `json:"finalPaymentBeforeCompletion" description:"Final payment is due before completion or inspection"`
	HasSafePaymentTerms          bool `json:"hasSafePaymentTerms" description:"Final payment is explicitly tied to completion or passed inspection"`

	MentionsWarranty        bool `json:"mentionsWarranty" description:"Any warranty is mentioned"`
	HasLaborWarranty        bool `json:"hasLaborWarranty" description:"A labor or installation warranty is included"`
	HasLifetimeWarranty     bool `json:"hasLifetimeWarranty" description:"A lifetime warranty is offered"`
	HasTransferableWarranty bool `json:"hasTransferableWarranty" description:"The warranty is transferable to a new owner"`

	HasPremiumIndicators bool `json:"hasPremiumIndicators" description:"Premium product indicators are present, e.g. named high-end brand, custom shapes, specialty glass"`
}

// SaveQuoteSignalsOutput is the tool result returned to the model.
type SaveQuoteSignalsOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func buildQuoteReaderTools(deps *QuoteReaderDeps) ([]tool.Tool, error) {
	saveSignals, err := functiontool.New(functiontool.Config{
		Name:        "SaveQuoteSignals",
		Description: "Save the extraction signals for the quote document. Call this ONCE after reading every page. Report only what the document actually states; never guess numbers.",
	}, func(ctx tool.Context, args SaveQuoteSignalsInput) (SaveQuoteSignalsOutput, error) {
		scanID, ok := deps.GetScanID()
		if !ok {
			return SaveQuoteSignalsOutput{Success: false, Message: "Missing scan context"}, fmt.Errorf("missing scan context")
		}

		if err := validateSignalsPayload(args); err != nil {
			log.Printf("Quote signals rejected for scan %s: %v", scanID, err)
			return SaveQuoteSignalsOutput{Success: false, Message: fmt.Sprintf("Invalid payload: %v. Fix the listed fields and call SaveQuoteSignals again.", err)}, nil
		}

		deps.SetResult(signalsFromInput(args))

		log.Printf("Quote signals saved for scan %s (valid=%t, traps=%d)", scanID, args.IsValidQuote, len(args.ContractTraps))

		return SaveQuoteSignalsOutput{Success: true, Message: "Quote signals saved successfully"}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("SaveQuoteSignals tool: %w", err)
	}

	return []tool.Tool{saveSignals}, nil
}

// signalsFromInput converts the validated tool payload into engine signals,
// normalizing the free-text fields the model tends to pad.
func signalsFromInput(args SaveQuoteSignalsInput) *scoring.Signals {
	sig := &scoring.Signals{
		IsValidQuote:         args.IsValidQuote,
		TotalPrice:           args.TotalPrice,
		OpeningCountEstimate: args.OpeningCountEstimate,
		DepositPercentage:    args.DepositPercentage,
		WarrantyYears:        args.WarrantyYears,
		ContractTraps:        normalizeContractTraps(args.ContractTraps),

		MentionsImpactRating:     args.MentionsImpactRating,
		HasProductApprovalNumber: args.HasProductApprovalNumber,
		MentionsLaminatedGlass:   args.MentionsLaminatedGlass,
		HasGlassSpecDetail:       args.HasGlassSpecDetail,
		TemperedGlassOnly:        args.TemperedGlassOnly,
		HasNonImpactLanguage:     args.HasNonImpactLanguage,

		MentionsPermit:       args.MentionsPermit,
		HasRemovalDetail:     args.HasRemovalDetail,
		HasSpecificMaterials: args.HasSpecificMaterials,
		MentionsWallRepair:   args.MentionsWallRepair,
		HasFinishDetail:      args.HasFinishDetail,
		MentionsCleanup:      args.MentionsCleanup,
		HasBrandClarity:      args.HasBrandClarity,
		SubjectToRemeasure:   args.SubjectToRemeasure,
		ExcludesRepairs:      args.ExcludesRepairs,

		FinalPaymentBeforeCompletion: args.FinalPaymentBeforeCompletion,
		HasSafePaymentTerms:          args.HasSafePaymentTerms,

		MentionsWarranty:        args.MentionsWarranty,
		HasLaborWarranty:        args.HasLaborWarranty,
		HasLifetimeWarranty:     args.HasLifetimeWarranty,
		HasTransferableWarranty: args.HasTransferableWarranty,

		HasPremiumIndicators: args.HasPremiumIndicators,
	}

	if reason := strings.TrimSpace(args.ValidityReason); reason != "" {
		sig.ValidityReason = &reason
	}

	return sig
}

// normalizeContractTraps trims entries, drops empties, and caps the length
// of each so the model can't dump whole contract paragraphs into warnings.
func normalizeContractTraps(traps []string) []string {
	const maxTrapLength = 120

	normalized := make([]string, 0, len(traps))
	for _, trap := range traps {
		trap = strings.TrimSpace(trap)
		if trap == "" {
			continue
		}
		if len(trap) > maxTrapLength {
			trap = trap[:maxTrapLength]
		}
		normalized = append(normalized, trap)
	}

	return normalized
}

// validateSignalsPayload checks the tool payload against the signals
// schema. A rejection is fed back to the model as the tool result so it
// can correct itself instead of failing the whole scan.
func validateSignalsPayload(args SaveQuoteSignalsInput) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	return signalsSchema.Validate(decoded)
}
