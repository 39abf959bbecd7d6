package model

import "time"

// Severity grades a safety finding.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SafetyVerdict is the ephemeral result of screening one inbound message.
// It is returned to the caller and recorded in the audit log, never persisted
// beyond that.
type SafetyVerdict struct {
	IsSafe        bool     `json:"is_safe"`
	BlockedReason string   `json:"blocked_reason,omitempty"`
	Severity      Severity `json:"severity"`

	Jailbreak      bool `json:"jailbreak_attempt"`
	OffTopic       bool `json:"off_topic"`
	CharacterBreak bool `json:"character_break"`
	Manipulation   bool `json:"manipulation_attempt"`

	// SuggestedResponse is a persona-appropriate deflection shown to the user
	// when the message is blocked or flagged.
	SuggestedResponse string `json:"suggested_response,omitempty"`

	// Sanitized is the cleaned message the rest of the pipeline should use.
	Sanitized string `json:"-"`
}

// SafeVerdict is the zero-finding verdict for a clean message.
func SafeVerdict(sanitized string) SafetyVerdict {
	return SafetyVerdict{IsSafe: true, Severity: SeverityNone, Sanitized: sanitized}
}

// SafetyEvent is one audit-log record of a safety evaluation.
type SafetyEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id"`
	MessagePreview string    `json:"message_preview"`
	Severity       Severity  `json:"severity"`
	Blocked        bool      `json:"blocked"`
	Jailbreak      bool      `json:"jailbreak"`
	OffTopic       bool      `json:"off_topic"`
	CharacterBreak bool      `json:"character_break"`
	Manipulation   bool      `json:"manipulation"`
}
