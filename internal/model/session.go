package model

// Domain identifies one of the independent data-collection contexts.
type Domain string

const (
	DomainCompensation Domain = "compensation"
	DomainPolicy       Domain = "policy"
)

// Domains lists all registered collection domains in priority order.
var Domains = []Domain{DomainCompensation, DomainPolicy}

// Phase is the lifecycle stage of a collection.
type Phase string

const (
	PhaseNotStarted           Phase = "not_started"
	PhaseAsking               Phase = "asking"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseCompleted            Phase = "completed"
)

// Mode selects the collection strategy for a session.
type Mode string

const (
	// ModeConversational extracts fields from free-form utterances.
	ModeConversational Mode = "conversational"
	// ModeSequential asks one scripted question per field, in schema order.
	ModeSequential Mode = "sequential"
)

// CollectionState tracks one domain's collection within a session.
type CollectionState struct {
	Phase         Phase             `json:"phase"`
	QuestionIndex int               `json:"question_index"`
	Answers       map[string]string `json:"answers"`
}

// NewCollectionState returns a freshly started collection.
func NewCollectionState() *CollectionState {
	return &CollectionState{
		Phase:   PhaseAsking,
		Answers: make(map[string]string),
	}
}

// InProgress reports whether the collection is started but not completed.
func (c *CollectionState) InProgress() bool {
	return c != nil && (c.Phase == PhaseAsking || c.Phase == PhaseAwaitingConfirmation)
}

// ResetForEdit returns the collection to the first question while preserving
// captured answers as editable defaults.
func (c *CollectionState) ResetForEdit() {
	c.Phase = PhaseAsking
	c.QuestionIndex = 0
}

// historyLimit caps the retained turns; the extractor only ever reads the
// trailing three.
const historyLimit = 6

// SessionState is the per-session conversation state. It is exclusively owned
// by one user session; the orchestrator serializes all mutation.
type SessionState struct {
	ID          string                      `json:"id"`
	Mode        Mode                        `json:"mode"`
	Collections map[Domain]*CollectionState `json:"collections"`

	// Set after a query touched both domains, until the user picks one.
	AwaitingBothChoice bool `json:"awaiting_both_choice,omitempty"`

	// Set after a query routed to a single domain, until the user confirms
	// or declines starting that track. Empty when no confirmation pends.
	AwaitingStartConfirm Domain `json:"awaiting_start_confirm,omitempty"`

	IntroShown bool   `json:"intro_shown,omitempty"`
	History    []Turn `json:"history,omitempty"`
}

// NewSessionState returns an empty session in the given mode.
func NewSessionState(id string, mode Mode) *SessionState {
	return &SessionState{
		ID:          id,
		Mode:        mode,
		Collections: make(map[Domain]*CollectionState),
	}
}

// Collection returns the CollectionState for domain, creating it if absent.
func (s *SessionState) Collection(domain Domain) *CollectionState {
	if s.Collections == nil {
		s.Collections = make(map[Domain]*CollectionState)
	}
	c, ok := s.Collections[domain]
	if !ok || c == nil {
		c = NewCollectionState()
		s.Collections[domain] = c
	}
	return c
}

// ActiveCollection returns the first in-progress collection in domain
// priority order, if any.
func (s *SessionState) ActiveCollection() (Domain, *CollectionState, bool) {
	for _, d := range Domains {
		if c, ok := s.Collections[d]; ok && c.InProgress() {
			return d, c, true
		}
	}
	return "", nil, false
}

// ClearCollection discards a domain's collection so a fresh one can start.
func (s *SessionState) ClearCollection(domain Domain) {
	delete(s.Collections, domain)
}

// MergeExtraction folds an extraction result into a collection's answers.
// A later non-empty value overwrites an earlier one; a missing or empty value
// never erases a previously captured answer.
func (c *CollectionState) MergeExtraction(res *ExtractionResult) {
	if res == nil {
		return
	}
	if c.Answers == nil {
		c.Answers = make(map[string]string)
	}
	for field, value := range res.Extracted {
		if value != "" {
			c.Answers[field] = value
		}
	}
}

// PushTurn appends a turn to the session history, trimming to the cap.
func (s *SessionState) PushTurn(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
	if len(s.History) > historyLimit {
		s.History = s.History[len(s.History)-historyLimit:]
	}
}

// RecentHistory returns up to n trailing turns.
func (s *SessionState) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}
