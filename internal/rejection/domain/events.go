package domain

import (
	"time"

	"github.com/happyrobot-antonio/rechazos/internal/shared/types"
)

// TimelineEventType defines the kinds of communication events tracked on a case
type TimelineEventType string

const (
	EventHappyrobotInit       TimelineEventType = "happyrobot_init"
	EventEmailNotFound        TimelineEventType = "email_not_found"
	EventCallSentToGetEmail   TimelineEventType = "call_sent_to_get_email"
	EventEmailSent            TimelineEventType = "email_sent"
	EventWait24h              TimelineEventType = "wait_24h"
	EventWait48h              TimelineEventType = "wait_48h"
	EventWait72h              TimelineEventType = "wait_72h"
	EventEmailReceivedWithDoc TimelineEventType = "email_received_with_attachment"
	EventEmailReceivedNoDoc   TimelineEventType = "email_received_no_attachment"
	EventManualResult         TimelineEventType = "manual_result"
)

// KnownEventTypes lists every accepted timeline event type.
var KnownEventTypes = []TimelineEventType{
	EventHappyrobotInit,
	EventEmailNotFound,
	EventCallSentToGetEmail,
	EventEmailSent,
	EventWait24h,
	EventWait48h,
	EventWait72h,
	EventEmailReceivedWithDoc,
	EventEmailReceivedNoDoc,
	EventManualResult,
}

// IsKnownEventType reports whether t is in the accepted set.
func IsKnownEventType(t TimelineEventType) bool {
	for _, known := range KnownEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TimelineEvent is an immutable, timestamped interaction record attached to
// exactly one case. The client only ever appends; it never edits past events.
type TimelineEvent struct {
	ID          types.ID          `json:"id"`
	CaseID      string            `json:"caseId"`
	Type        TimelineEventType `json:"type"`
	Description string            `json:"description"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewTimelineEvent builds an event with a fresh ID and the current time.
func NewTimelineEvent(caseID string, eventType TimelineEventType, description string, metadata map[string]any) TimelineEvent {
	return TimelineEvent{
		ID:          types.NewID(),
		CaseID:      caseID,
		Type:        eventType,
		Description: description,
		Metadata:    metadata,
		Timestamp:   time.Now(),
	}
}
