package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the contract all bus events satisfy.
type Event interface {
	// EventType returns the unique code for this event (e.g. "CHAT_TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent carries the common fields; concrete events are built through
// the constructors below.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewChatTurnCompleted fires after an assistant turn has been persisted.
func NewChatTurnCompleted(userID, conversationID uuid.UUID, model string, promptTokens, completionTokens int) Event {
	return BaseEvent{
		Type: "CHAT_TURN_COMPLETED",
		Data: map[string]interface{}{
			"user_id":           userID.String(),
			"conversation_id":   conversationID.String(),
			"model":             model,
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
		},
		OccurredAt: time.Now(),
	}
}

// NewUserRegistered fires after a successful registration, before activation.
func NewUserRegistered(userID uuid.UUID, email string) Event {
	return BaseEvent{
		Type: "USER_REGISTERED",
		Data: map[string]interface{}{
			"user_id": userID.String(),
			"email":   email,
		},
		OccurredAt: time.Now(),
	}
}

// NewSubscriptionActivated fires once payment settles and the API key is issued.
func NewSubscriptionActivated(userID, subscriptionID uuid.UUID, planName string) Event {
	return BaseEvent{
		Type: "SUBSCRIPTION_ACTIVATED",
		Data: map[string]interface{}{
			"user_id":         userID.String(),
			"subscription_id": subscriptionID.String(),
			"plan":            planName,
		},
		OccurredAt: time.Now(),
	}
}
