package entities

import (
	"strings"
	"time"

	pkgerrors "foodiary/pkg/errors"
)

// Gender of the profile owner
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// ActivityLevel describes how active the profile owner is
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "SEDENTARY"
	ActivityLight     ActivityLevel = "LIGHT"
	ActivityModerate  ActivityLevel = "MODERATE"
	ActivityHeavy     ActivityLevel = "HEAVY"
	ActivityAthlete   ActivityLevel = "ATHLETE"
)

// GoalType is what the owner wants to achieve with their diet
type GoalType string

const (
	GoalLose     GoalType = "LOSE"
	GoalMaintain GoalType = "MAINTAIN"
	GoalGain     GoalType = "GAIN"
)

// BirthDateLayout is the calendar-day format used for birth dates
const BirthDateLayout = "2006-01-02"

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

func (l ActivityLevel) Valid() bool {
	switch l {
	case ActivitySedentary, ActivityLight, ActivityModerate, ActivityHeavy, ActivityAthlete:
		return true
	}
	return false
}

func (g GoalType) Valid() bool {
	return g == GoalLose || g == GoalMaintain || g == GoalGain
}

// ProfileAttributes carries the mutable demographic data of a profile
type ProfileAttributes struct {
	Name          string
	BirthDate     time.Time
	Gender        Gender
	Height        float64 // centimetres
	Weight        float64 // kilograms
	ActivityLevel ActivityLevel
	Goal          GoalType
}

// Validate checks the attributes against the profile rules
func (a ProfileAttributes) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return pkgerrors.NewValidationError("name cannot be empty")
	}
	if a.BirthDate.IsZero() || a.BirthDate.After(time.Now()) {
		return pkgerrors.NewValidationError("birth date must be in the past")
	}
	if !a.Gender.Valid() {
		return pkgerrors.NewValidationError("invalid gender")
	}
	if a.Height <= 0 || a.Weight <= 0 {
		return pkgerrors.NewValidationError("height and weight must be positive")
	}
	if !a.ActivityLevel.Valid() {
		return pkgerrors.NewValidationError("invalid activity level")
	}
	if !a.Goal.Valid() {
		return pkgerrors.NewValidationError("invalid goal")
	}
	return nil
}

// Profile is the demographic data of one account
type Profile struct {
	accountID string
	attrs     ProfileAttributes
	createdAt time.Time
}

// NewProfile creates the profile of an account
func NewProfile(accountID string, attrs ProfileAttributes) (*Profile, error) {
	if accountID == "" {
		return nil, pkgerrors.NewValidationError("accountID cannot be empty")
	}
	if err := attrs.Validate(); err != nil {
		return nil, err
	}

	attrs.Name = strings.TrimSpace(attrs.Name)
	attrs.BirthDate = truncateToDay(attrs.BirthDate)

	return &Profile{
		accountID: accountID,
		attrs:     attrs,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructProfile rebuilds a profile from stored data
func ReconstructProfile(accountID string, attrs ProfileAttributes, createdAt time.Time) *Profile {
	return &Profile{
		accountID: accountID,
		attrs:     attrs,
		createdAt: createdAt.UTC(),
	}
}

// Update replaces the mutable attributes; accountID and createdAt never change
func (p *Profile) Update(attrs ProfileAttributes) error {
	if err := attrs.Validate(); err != nil {
		return err
	}
	attrs.Name = strings.TrimSpace(attrs.Name)
	attrs.BirthDate = truncateToDay(attrs.BirthDate)
	p.attrs = attrs
	return nil
}

// Age returns the age in whole years at the given instant
func (p *Profile) Age(at time.Time) int {
	birth := p.attrs.BirthDate
	years := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		years--
	}
	return years
}

func (p *Profile) AccountID() string             { return p.accountID }
func (p *Profile) Name() string                  { return p.attrs.Name }
func (p *Profile) BirthDate() time.Time          { return p.attrs.BirthDate }
func (p *Profile) Gender() Gender                { return p.attrs.Gender }
func (p *Profile) Height() float64               { return p.attrs.Height }
func (p *Profile) Weight() float64               { return p.attrs.Weight }
func (p *Profile) ActivityLevel() ActivityLevel  { return p.attrs.ActivityLevel }
func (p *Profile) Goal() GoalType                { return p.attrs.Goal }
func (p *Profile) Attributes() ProfileAttributes { return p.attrs }
func (p *Profile) CreatedAt() time.Time          { return p.createdAt }

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
