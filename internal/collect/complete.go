package collect

import (
	"strings"

	"github.com/sells-group/mobility-advisor/internal/schema"
)

// IsComplete reports whether every schema field has a non-empty answer.
// A schema with no fields is complete by definition.
func IsComplete(fields []schema.Field, answers map[string]string) bool {
	return len(MissingFields(fields, answers)) == 0
}

// MissingFields returns the schema fields still lacking a non-empty answer,
// in schema order.
func MissingFields(fields []schema.Field, answers map[string]string) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(answers[f.Key]) == "" {
			missing = append(missing, f.Key)
		}
	}
	return missing
}
