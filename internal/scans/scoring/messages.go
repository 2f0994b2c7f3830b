package scoring

// Homeowner-facing copy. These strings are part of the report contract;
// the funnel UI renders them verbatim.
const (
	warnNotAQuote           = "This document doesn't look like a window or door replacement quote, so it was not graded."
	warnTemperedOnly        = "Only tempered glass is mentioned. Tempered glass alone is not impact protection for window and door openings."
	warnNonImpactLanguage   = "The quote contains non-impact product language. Confirm in writing that every opening gets impact-rated product."
	warnSubjectToChange     = "The price is marked subject to change after remeasure. Ask for a firm final price before signing."
	warnDepositTooHigh      = "The deposit is more than 40% of the total. That is far above industry norms and puts your money at risk."
	warnFinalPaymentUpfront = "Final payment is due before the work is complete. Never release the last payment before passed inspection."
	warnContractTrapsPrefix = "Contract terms to review before signing: "

	missingPricePerOpening = "Total price or opening count is missing, so price per opening couldn't be calculated."
	missingImpactEvidence  = "No impact rating, product approval number, or laminated glass specification was found."
	missingWallRepair      = "Stucco and drywall repair isn't clearly included. Confirm who pays for wall repairs."
	missingDepositTerms    = "No deposit amount is stated. Ask for the full payment schedule in writing."
	missingWarranty        = "No warranty is mentioned anywhere in the quote."
	missingPriceEvaluation = "Pricing couldn't be compared against typical market rates."

	summaryNotGraded     = "We couldn't grade this document because it doesn't appear to be a window or door quote."
	summarySafetyWeak    = "The biggest concern is safety: this quote doesn't clearly commit to impact-rated, code-compliant products."
	summaryFinePrintWeak = "Payment terms are the weakest part of this quote, so review the deposit and contract conditions closely."
	summaryScopeWeak     = "The scope of work is the weakest part of this quote, and vague scope is where surprise charges come from."
	summaryWarrantyWeak  = "Warranty coverage is the weakest part of this quote, so push for product and labor warranties in writing."
	summaryPriceOutlier  = "The price stands out from typical market rates, so compare this quote against at least one competing bid."
	summaryStrong        = "This is a well-documented quote with no major red flags."
	summaryAcceptable    = "This quote is acceptable overall but has gaps worth clarifying before you sign."
	summaryConcerns      = "This quote has significant concerns, so get clarification or competing bids before signing anything."
)
