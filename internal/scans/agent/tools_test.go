package agent

import (
	"strings"
	"testing"
)

func TestNormalizeContractTraps(t *testing.T) {
	traps := normalizeContractTraps([]string{
		"  cancellation fee  ",
		"",
		"   ",
		strings.Repeat("x", 300),
	})

	if len(traps) != 2 {
		t.Fatalf("expected 2 traps after normalization, got %d", len(traps))
	}
	if traps[0] != "cancellation fee" {
		t.Errorf("expected trimmed trap, got %q", traps[0])
	}
	if len(traps[1]) != 120 {
		t.Errorf("expected long trap capped at 120 chars, got %d", len(traps[1]))
	}
}

func TestSignalsFromInputValidityReason(t *testing.T) {
	sig := signalsFromInput(SaveQuoteSignalsInput{
		IsValidQuote:   false,
		ValidityReason: "  This is a roofing invoice.  ",
	})

	if sig.ValidityReason == nil || *sig.ValidityReason != "This is a roofing invoice." {
		t.Errorf("expected trimmed validity reason, got %v", sig.ValidityReason)
	}

	sig = signalsFromInput(SaveQuoteSignalsInput{IsValidQuote: true, ValidityReason: "   "})
	if sig.ValidityReason != nil {
		t.Errorf("expected blank validity reason dropped, got %q", *sig.ValidityReason)
	}
}

func TestValidateSignalsPayload(t *testing.T) {
	price := 24000.0
	count := 12
	deposit := 33.0

	valid := SaveQuoteSignalsInput{
		IsValidQuote:         true,
		TotalPrice:           &price,
		OpeningCountEstimate: &count,
		DepositPercentage:    &deposit,
		ContractTraps:        []string{"binding arbitration"},
	}
	if err := validateSignalsPayload(valid); err != nil {
		t.Fatalf("expected valid payload to pass, got %v", err)
	}

	badDeposit := 4000.0
	if err := validateSignalsPayload(SaveQuoteSignalsInput{IsValidQuote: true, DepositPercentage: &badDeposit}); err == nil {
		t.Error("expected deposit over 100 percent to be rejected")
	}

	zeroOpenings := 0
	if err := validateSignalsPayload(SaveQuoteSignalsInput{IsValidQuote: true, OpeningCountEstimate: &zeroOpenings}); err == nil {
		t.Error("expected zero opening count to be rejected")
	}

	negativePrice := -100.0
	if err := validateSignalsPayload(SaveQuoteSignalsInput{IsValidQuote: true, TotalPrice: &negativePrice}); err == nil {
		t.Error("expected negative total price to be rejected")
	}
}
