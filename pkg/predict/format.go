package predict

import (
	"fmt"
	"sort"
	"strings"
)

// FormatCompensation renders a compensation prediction as a chat reply.
func FormatCompensation(params CompensationParams, res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's your compensation estimate for %s → %s:\n\n",
		params.OriginLocation, params.DestinationLocation)
	writeBody(&b, res)
	return strings.TrimRight(b.String(), "\n")
}

// FormatPolicy renders a policy analysis as a chat reply.
func FormatPolicy(params PolicyParams, res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Policy analysis for a %s assignment, %s → %s:\n\n",
		strings.ToLower(valueOr(params.AssignmentType, "standard")),
		params.OriginCountry, params.DestinationCountry)
	writeBody(&b, res)
	return strings.TrimRight(b.String(), "\n")
}

func writeBody(b *strings.Builder, res *Result) {
	if res == nil {
		return
	}
	if res.Summary != "" {
		b.WriteString(res.Summary)
		b.WriteString("\n\n")
	}
	if len(res.Data) == 0 {
		return
	}
	keys := make([]string, 0, len(res.Data))
	for k := range res.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %s\n", k, res.Data[k])
	}
}
