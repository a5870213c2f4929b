package model

// Turn is a single chat message, used as disambiguation context for
// extraction. Turns are never mutated after capture.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Clarification is an optional follow-up question the extractor suggests for
// a field it could not resolve.
type Clarification struct {
	Field    string `json:"field"`
	Question string `json:"question"`
	Reason   string `json:"reason"`
}

// ExtractionResult holds one extraction pass over a user utterance. Extracted
// contains only fields with non-empty values; every schema field absent from
// Extracted appears in Missing, so the union of the two always covers the
// domain's schema.
type ExtractionResult struct {
	Extracted      map[string]string  `json:"extracted_fields"`
	Confidence     map[string]float64 `json:"confidence"`
	Missing        []string           `json:"missing_fields"`
	Clarifications []Clarification    `json:"clarifications"`
}

// NewExtractionResult returns an empty result with all schema fields missing.
// This is the extractor's recovery default when the oracle output cannot be
// parsed.
func NewExtractionResult(schemaFields []string) *ExtractionResult {
	missing := make([]string, len(schemaFields))
	copy(missing, schemaFields)
	return &ExtractionResult{
		Extracted:  make(map[string]string),
		Confidence: make(map[string]float64),
		Missing:    missing,
	}
}

// Attachment is a pre-extracted text snippet from an uploaded document.
// File parsing happens outside this core; attachments arrive as plain text
// keyed by filename.
type Attachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
