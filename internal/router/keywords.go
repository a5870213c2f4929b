package router

import "github.com/sells-group/mobility-advisor/internal/model"

// Direct-phrase shortcuts. Exact matches (after lowercasing and trimming)
// bypass scoring and the oracle entirely.
var directPhrases = map[string]model.Destination{
	"compensation":            model.DestCompensation,
	"salary":                  model.DestCompensation,
	"pay":                     model.DestCompensation,
	"money":                   model.DestCompensation,
	"cost":                    model.DestCompensation,
	"compensation calculator": model.DestCompensation,
	"policy":                  model.DestPolicy,
	"policies":                model.DestPolicy,
	"visa":                    model.DestPolicy,
	"immigration":             model.DestPolicy,
	"compliance":              model.DestPolicy,
	"policy analyzer":         model.DestPolicy,
}

// Help-like phrases route to guidance when contained anywhere in the input.
var helpPhrases = []string{
	"who are you",
	"what can you do",
	"help me",
	"what else",
}

// defaultKeywords are the scored keyword lists per destination. Multi-word
// keywords score 3, single words longer than six characters score 2, the rest
// score 1.
var defaultKeywords = map[model.Destination][]string{
	model.DestCompensation: {
		"salary", "compensation", "pay", "earn", "wage", "income",
		"allowance", "cost of living", "cola", "housing allowance",
		"net pay", "hardship pay", "financial package", "bonus",
		"currency", "exchange rate", "how much",
	},
	model.DestPolicy: {
		"policy", "visa", "immigration", "compliance", "regulation",
		"assignment type", "swim lane", "eligibility", "work permit",
		"documentation", "legal", "rules", "guidelines", "approval process",
	},
	model.DestBoth: {
		"cheapest way", "best way to send", "optimal", "total cost",
		"end to end", "full picture", "policy and compensation",
		"compensation and policy",
	},
}

// destinationPriority fixes the tie-break order for keyword scoring. When two
// destinations score equally, the earlier entry wins.
var destinationPriority = []model.Destination{
	model.DestCompensation,
	model.DestPolicy,
	model.DestBoth,
	model.DestFallback,
}
