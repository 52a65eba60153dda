package entities

import (
	"time"

	pkgerrors "foodiary/pkg/errors"
)

// Macros are daily nutrition targets
type Macros struct {
	Calories      float64
	Proteins      float64
	Carbohydrates float64
	Fats          float64
}

// Validate requires every target to be at least 1
func (m Macros) Validate() error {
	if m.Calories < 1 || m.Proteins < 1 || m.Carbohydrates < 1 || m.Fats < 1 {
		return pkgerrors.NewValidationError("calories, proteins, carbohydrates and fats must be at least 1")
	}
	return nil
}

// Goal holds the daily targets of one account
type Goal struct {
	accountID string
	macros    Macros
	createdAt time.Time
}

// NewGoal creates the goal of an account
func NewGoal(accountID string, macros Macros) (*Goal, error) {
	if accountID == "" {
		return nil, pkgerrors.NewValidationError("accountID cannot be empty")
	}
	if err := macros.Validate(); err != nil {
		return nil, err
	}
	return &Goal{
		accountID: accountID,
		macros:    macros,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructGoal rebuilds a goal from stored data
func ReconstructGoal(accountID string, macros Macros, createdAt time.Time) *Goal {
	return &Goal{
		accountID: accountID,
		macros:    macros,
		createdAt: createdAt.UTC(),
	}
}

// Update replaces the targets
func (g *Goal) Update(macros Macros) error {
	if err := macros.Validate(); err != nil {
		return err
	}
	g.macros = macros
	return nil
}

func (g *Goal) AccountID() string      { return g.accountID }
func (g *Goal) Macros() Macros         { return g.macros }
func (g *Goal) Calories() float64      { return g.macros.Calories }
func (g *Goal) Proteins() float64      { return g.macros.Proteins }
func (g *Goal) Carbohydrates() float64 { return g.macros.Carbohydrates }
func (g *Goal) Fats() float64          { return g.macros.Fats }
func (g *Goal) CreatedAt() time.Time   { return g.createdAt }
