package models

import "time"

// ScheduleInstruction is the resolved scheduling carried by a payload:
// either a provider queue hint or an absolute UTC timestamp.
type ScheduleInstruction struct {
	// QueueHint is "top" or "bottom" when the provider queue decides the
	// send time. Empty when At is set or the send is immediate.
	QueueHint string `json:"queue_hint,omitempty"`
	// At is the absolute send time in UTC. Zero means immediate (or
	// queue-decided when QueueHint is set).
	At time.Time `json:"at,omitempty"`
}

// DispatchPayload is the fully rendered request body for one
// profile/status pair, or an error marker when rendering failed.
type DispatchPayload struct {
	ProfileID string              `json:"profile_id"`
	Service   string              `json:"service"`
	Action    Action              `json:"action"`
	Text      string              `json:"text"`
	RichText  string              `json:"rich_text,omitempty"`
	ImageURL  string              `json:"image_url,omitempty"`
	ImageMode ImageMode           `json:"image_mode"`
	Schedule  ScheduleInstruction `json:"schedule"`
	// ShortenLinks is cleared for payloads whose rich-text entities
	// carry character offsets that shortening would invalidate.
	ShortenLinks bool              `json:"shorten_links"`
	Extra        map[string]string `json:"extra,omitempty"`

	// Err marks a payload whose rendering failed. The payload is logged
	// as an error result and never sent.
	Err error `json:"-"`
}

// ResultKind classifies the outcome of sending one payload.
type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultError   ResultKind = "error"
	// ResultPending marks a payload the provider accepted for delivery
	// at a later due time.
	ResultPending ResultKind = "pending"
	ResultTest    ResultKind = "test"
)

// DispatchResult is the outcome of sending (or simulating) one payload.
// Persisted as an append-only log entry.
type DispatchResult struct {
	Action    Action     `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
	ProfileID string     `json:"profile_id"`
	Kind      ResultKind `json:"kind"`
	Message   string     `json:"message"`
	Text      string     `json:"text"`
	// Provider timestamps, when the provider reported them.
	ProviderCreatedAt time.Time `json:"provider_created_at,omitempty"`
	ProviderDueAt     time.Time `json:"provider_due_at,omitempty"`
}

// ProviderReceipt is what the profile directory returns for an accepted
// status creation.
type ProviderReceipt struct {
	ProfileID string    `json:"profile_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	DueAt     time.Time `json:"due_at"`
}

// DeferredTask re-enters the orchestrator once, some fixed delay after a
// lifecycle signal, when asynchronous dispatch is configured.
type DeferredTask struct {
	ContentID int64  `json:"content_id"`
	Action    Action `json:"action"`
}
