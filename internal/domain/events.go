package domain

import "time"

// Subjects of the events published after successful mutations.
const (
	SubjectClientCreated   = "clients.created"
	SubjectNumbersReplaced = "numbers.replaced"
	SubjectNumbersFlagged  = "numbers.flagged"
)

// Event is the payload published to the message bus.
type Event struct {
	Subject    string    `json:"subject"`
	ClientID   string    `json:"clientId,omitempty"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurredAt"`
}
