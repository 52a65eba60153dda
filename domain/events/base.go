package events

import (
	"time"
)

// SourceBackend is the event source name used on the event bus
const SourceBackend = "foodiary.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Meal Events

const (
	EventTypeMealQueued = "meal.queued"
)

// MealQueued is raised when the raw upload of a meal has landed and the meal
// is ready for the processing pipeline
type MealQueued struct {
	BaseEvent
	MealID       string `json:"meal_id"`
	AccountID    string `json:"account_id"`
	InputType    string `json:"input_type"`
	InputFileKey string `json:"input_file_key"`
}

// NewMealQueued creates a MealQueued event
func NewMealQueued(mealID, accountID, inputType, inputFileKey string, timestamp time.Time) MealQueued {
	return MealQueued{
		BaseEvent: BaseEvent{
			AggregateID: mealID,
			EventType:   EventTypeMealQueued,
			Timestamp:   timestamp,
			Version:     1,
		},
		MealID:       mealID,
		AccountID:    accountID,
		InputType:    inputType,
		InputFileKey: inputFileKey,
	}
}
