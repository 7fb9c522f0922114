package model

import "time"

// Document is a knowledge-base entry searchable by the relevance scorer.
type Document struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Content      string    `json:"content" db:"content"`
	DocumentType string    `json:"document_type,omitempty" db:"document_type"`
	Tags         []string  `json:"tags,omitempty" db:"tags"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Touch is a single outreach interaction with a company.
type Touch struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Channel   string    `json:"channel" db:"channel"`
	Summary   string    `json:"summary,omitempty" db:"summary"`
	Outcome   string    `json:"outcome,omitempty" db:"outcome"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Outreach channels.
const (
	ChannelEmail    = "email"
	ChannelCall     = "call"
	ChannelMeeting  = "meeting"
	ChannelLinkedIn = "linkedin"
	ChannelIntro    = "warm_intro"
)

// touchOutcomes maps a recorded touch outcome to the pipeline stage it implies.
var touchOutcomes = map[string]Status{
	"sent":        StatusContacted,
	"replied":     StatusResponded,
	"negotiating": StatusNegotiating,
	"committed":   StatusCommitted,
	"closed":      StatusClosed,
	"declined":    StatusDeclined,
}

// StatusForOutcome returns the pipeline stage implied by a touch outcome and
// whether the outcome is recognized.
func StatusForOutcome(outcome string) (Status, bool) {
	s, ok := touchOutcomes[outcome]
	return s, ok
}

// Task is a follow-up item for the organizing team.
type Task struct {
	ID        string     `json:"id" db:"id"`
	CompanyID string     `json:"company_id,omitempty" db:"company_id"`
	Title     string     `json:"title" db:"title"`
	Status    string     `json:"status" db:"status"`
	DueDate   *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Task statuses.
const (
	TaskOpen = "open"
	TaskDone = "done"
)

// Activity is a row in the team activity feed. Every admin operation appends
// one so the dashboard can show who did what.
type Activity struct {
	ID        string    `json:"id" db:"id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    string    `json:"action" db:"action"`
	Detail    string    `json:"detail,omitempty" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
