package entities

import (
	"fmt"
	"strings"
	"time"

	"foodiary/domain/core/valueobjects"
	"foodiary/domain/events"
	pkgerrors "foodiary/pkg/errors"
)

// MealStatus is the processing state of a meal
type MealStatus string

const (
	MealStatusUploading  MealStatus = "UPLOADING"
	MealStatusQueued     MealStatus = "QUEUED"
	MealStatusProcessing MealStatus = "PROCESSING"
	MealStatusSuccess    MealStatus = "SUCCESS"
	MealStatusFailed     MealStatus = "FAILED"
)

// rank orders the statuses; a meal never moves to a lower rank
func (s MealStatus) rank() int {
	switch s {
	case MealStatusUploading:
		return 0
	case MealStatusQueued:
		return 1
	case MealStatusProcessing:
		return 2
	case MealStatusSuccess, MealStatusFailed:
		return 3
	}
	return -1
}

func (s MealStatus) Valid() bool { return s.rank() >= 0 }

// IsTerminal reports whether no further transitions are possible
func (s MealStatus) IsTerminal() bool { return s.rank() == 3 }

// InputType is the kind of raw upload a meal was logged with
type InputType string

const (
	InputTypeAudio   InputType = "AUDIO"
	InputTypePicture InputType = "PICTURE"
)

func (t InputType) Valid() bool {
	return t == InputTypeAudio || t == InputTypePicture
}

// FileExtension is the object extension used for uploads of this type
func (t InputType) FileExtension() string {
	if t == InputTypeAudio {
		return "m4a"
	}
	return "jpeg"
}

// Meal is a logged meal, enriched asynchronously with recognised foods
type Meal struct {
	id           string
	accountID    string
	status       MealStatus
	attempts     int
	inputType    InputType
	inputFileKey string
	name         string
	icon         string
	foods        []valueobjects.Food
	createdAt    time.Time

	events []events.DomainEvent
}

// NewMeal creates a meal in the UPLOADING state. The raw upload is stored
// under {accountID}/{mealID}.{ext}.
func NewMeal(accountID string, inputType InputType) (*Meal, error) {
	if accountID == "" {
		return nil, pkgerrors.NewValidationError("accountID cannot be empty")
	}
	if !inputType.Valid() {
		return nil, pkgerrors.NewValidationError("invalid input type")
	}

	id := valueobjects.NewID()
	return &Meal{
		id:           id,
		accountID:    accountID,
		status:       MealStatusUploading,
		inputType:    inputType,
		inputFileKey: MealFileKey(accountID, id, inputType),
		foods:        []valueobjects.Food{},
		createdAt:    time.Now().UTC(),
	}, nil
}

// MealFileKey derives the object key of a meal upload
func MealFileKey(accountID, mealID string, inputType InputType) string {
	return fmt.Sprintf("%s/%s.%s", accountID, mealID, inputType.FileExtension())
}

// ParseMealFileKey extracts account and meal id from an upload object key
func ParseMealFileKey(key string) (accountID, mealID string, err error) {
	accountID, file, ok := strings.Cut(key, "/")
	if !ok || accountID == "" || strings.Contains(file, "/") {
		return "", "", pkgerrors.NewValidationError(fmt.Sprintf("invalid meal file key %q", key))
	}
	mealID, ext, ok := strings.Cut(file, ".")
	if !ok || mealID == "" || (ext != InputTypeAudio.FileExtension() && ext != InputTypePicture.FileExtension()) {
		return "", "", pkgerrors.NewValidationError(fmt.Sprintf("invalid meal file key %q", key))
	}
	return accountID, mealID, nil
}

// MealAttributes is the stored state of a meal
type MealAttributes struct {
	ID           string
	AccountID    string
	Status       MealStatus
	Attempts     int
	InputType    InputType
	InputFileKey string
	Name         string
	Icon         string
	Foods        []valueobjects.Food
	CreatedAt    time.Time
}

// ReconstructMeal rebuilds a meal from stored data
func ReconstructMeal(attrs MealAttributes) *Meal {
	foods := attrs.Foods
	if foods == nil {
		foods = []valueobjects.Food{}
	}
	return &Meal{
		id:           attrs.ID,
		accountID:    attrs.AccountID,
		status:       attrs.Status,
		attempts:     attrs.Attempts,
		inputType:    attrs.InputType,
		inputFileKey: attrs.InputFileKey,
		name:         attrs.Name,
		icon:         attrs.Icon,
		foods:        foods,
		createdAt:    attrs.CreatedAt.UTC(),
	}
}

// transitionTo moves the meal forward, rejecting any move back to a lower rank
func (m *Meal) transitionTo(next MealStatus) error {
	if m.status.IsTerminal() || next.rank() < m.status.rank() {
		return m.invalidTransition(next)
	}
	m.status = next
	return nil
}

func (m *Meal) invalidTransition(next MealStatus) error {
	return pkgerrors.NewValidationError(
		fmt.Sprintf("meal %s cannot move from %s to %s", m.id, m.status, next),
	).WithCode(pkgerrors.CodeInvalidTransition)
}

// MarkQueued records that the raw upload landed
func (m *Meal) MarkQueued(at time.Time) error {
	if m.status != MealStatusUploading {
		return m.invalidTransition(MealStatusQueued)
	}
	if err := m.transitionTo(MealStatusQueued); err != nil {
		return err
	}
	m.events = append(m.events, events.NewMealQueued(
		m.id, m.accountID, string(m.inputType), m.inputFileKey, at,
	))
	return nil
}

// StartProcessing, Complete and Fail are the transitions of the processing
// pipeline that consumes MealQueued events; this service only persists their
// outcome.

// StartProcessing counts a processing attempt. Redelivery while already
// processing is a retry and only bumps the counter.
func (m *Meal) StartProcessing(maxAttempts int) error {
	if m.status != MealStatusProcessing {
		if err := m.transitionTo(MealStatusProcessing); err != nil {
			return err
		}
	}
	m.attempts++
	if maxAttempts > 0 && m.attempts > maxAttempts {
		return m.Fail()
	}
	return nil
}

// Complete stores the recognised foods; foods only exist on successful meals
func (m *Meal) Complete(name, icon string, foods []valueobjects.Food) error {
	if m.status != MealStatusProcessing {
		return m.invalidTransition(MealStatusSuccess)
	}
	if err := m.transitionTo(MealStatusSuccess); err != nil {
		return err
	}
	m.name = name
	m.icon = icon
	m.foods = append([]valueobjects.Food{}, foods...)
	return nil
}

// Fail marks the meal as failed and drops any partial foods
func (m *Meal) Fail() error {
	if err := m.transitionTo(MealStatusFailed); err != nil {
		return err
	}
	m.foods = []valueobjects.Food{}
	return nil
}

// Events returns and clears the events raised since the last call
func (m *Meal) Events() []events.DomainEvent {
	out := m.events
	m.events = nil
	return out
}

func (m *Meal) ID() string                 { return m.id }
func (m *Meal) AccountID() string          { return m.accountID }
func (m *Meal) Status() MealStatus         { return m.status }
func (m *Meal) Attempts() int              { return m.attempts }
func (m *Meal) InputType() InputType       { return m.inputType }
func (m *Meal) InputFileKey() string       { return m.inputFileKey }
func (m *Meal) Name() string               { return m.name }
func (m *Meal) Icon() string               { return m.icon }
func (m *Meal) Foods() []valueobjects.Food { return m.foods }
func (m *Meal) CreatedAt() time.Time       { return m.createdAt }
