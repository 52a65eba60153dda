package queries

import "foodiary/pkg/utils"

// GetMeQuery reads the profile and goal of the calling account
type GetMeQuery struct {
	AccountID string `validate:"required"`
}

// Validate checks the query against its field rules
func (q GetMeQuery) Validate() error { return utils.ValidateStruct(q) }

// ProfileView is a profile as returned to clients
type ProfileView struct {
	Name          string  `json:"name"`
	BirthDate     string  `json:"birthDate"`
	Gender        string  `json:"gender"`
	Height        float64 `json:"height"`
	Weight        float64 `json:"weight"`
	ActivityLevel string  `json:"activityLevel"`
	Goal          string  `json:"goal"`
}

// GoalView is a goal as returned to clients
type GoalView struct {
	Calories      float64 `json:"calories"`
	Proteins      float64 `json:"proteins"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fats          float64 `json:"fats"`
}

// GetMeResult represents the result of GetMeQuery
type GetMeResult struct {
	Profile ProfileView `json:"profile"`
	Goal    GoalView    `json:"goal"`
}
