package commands

import "foodiary/pkg/utils"

// UpdateProfileCommand replaces the mutable attributes of a profile
type UpdateProfileCommand struct {
	AccountID     string  `json:"-" validate:"required"`
	Name          string  `json:"name" validate:"required,min=1"`
	BirthDate     string  `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Gender        string  `json:"gender" validate:"required,oneof=MALE FEMALE"`
	Height        float64 `json:"height" validate:"required,gt=0"`
	Weight        float64 `json:"weight" validate:"required,gt=0"`
	ActivityLevel string  `json:"activityLevel" validate:"required,oneof=SEDENTARY LIGHT MODERATE HEAVY ATHLETE"`
	Goal          string  `json:"goal" validate:"required,oneof=LOSE MAINTAIN GAIN"`
}

// UpdateGoalCommand replaces the daily targets of an account
type UpdateGoalCommand struct {
	AccountID     string  `json:"-" validate:"required"`
	Calories      float64 `json:"calories" validate:"gte=1"`
	Proteins      float64 `json:"proteins" validate:"gte=1"`
	Carbohydrates float64 `json:"carbohydrates" validate:"gte=1"`
	Fats          float64 `json:"fats" validate:"gte=1"`
}

func (c UpdateProfileCommand) Validate() error { return utils.ValidateStruct(c) }
func (c UpdateGoalCommand) Validate() error    { return utils.ValidateStruct(c) }
