package agent

import "github.com/santhosh-tekuri/jsonschema/v5"

// signalsSchema constrains what the SaveQuoteSignals tool accepts. The
// model occasionally hands back out-of-range numbers (deposit of 4000,
// negative opening counts); rejecting those here turns them into a
// correctable tool error instead of a garbage report.
var signalsSchema = jsonschema.MustCompileString("quote_signals.json", `{
	"type": "object",
	"properties": {
		"isValidQuote": {"type": "boolean"},
		"validityReason": {"type": "string", "maxLength": 500},
		"totalPrice": {"type": "number", "exclusiveMinimum": 0, "maximum": 10000000},
		"openingCountEstimate": {"type": "integer", "minimum": 1, "maximum": 500},
		"depositPercentage": {"type": "number", "minimum": 0, "maximum": 100},
		"warrantyYears": {"type": "number", "minimum": 0, "maximum": 100},
		"contractTraps": {
			"type": "array",
			"maxItems": 20,
			"items": {"type": "string", "maxLength": 500}
		}
	},
	"required": ["isValidQuote"]
}`)
