package usage

import "github.com/kyleturman/houston/llm"

// Pricing is USD per million tokens for a model key.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// prices is the static per-model price table. Keys absent from the table
// (local models) cost zero.
var prices = map[string]Pricing{
	"sonnet-4.5":       {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"haiku-4.5":        {InputPerMTok: 1.00, OutputPerMTok: 5.00},
	"opus-4.1":         {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"gpt-4o":           {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":      {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gpt-4.1":          {InputPerMTok: 2.00, OutputPerMTok: 8.00},
	"gpt-4.1-mini":     {InputPerMTok: 0.40, OutputPerMTok: 1.60},
	"gemini-2.5-flash": {InputPerMTok: 0.30, OutputPerMTok: 2.50},
	"gemini-2.5-pro":   {InputPerMTok: 1.25, OutputPerMTok: 10.00},
}

// Price returns the pricing for a model key and whether it is priced.
func Price(modelKey string) (Pricing, bool) {
	p, ok := prices[modelKey]
	return p, ok
}

// Cost computes the USD cost of a token usage sample for a model key.
// Unpriced keys cost zero.
func Cost(modelKey string, u llm.TokenUsage) float64 {
	p, ok := prices[modelKey]
	if !ok {
		return 0
	}
	return float64(u.InputTokens)*p.InputPerMTok/1e6 + float64(u.OutputTokens)*p.OutputPerMTok/1e6
}
