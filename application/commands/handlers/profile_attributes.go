package handlers

import (
	"foodiary/domain/core/entities"
	pkgerrors "foodiary/pkg/errors"
	"foodiary/pkg/utils"
)

// profileAttributes converts validated request fields into domain attributes
func profileAttributes(name, birthDate, gender string, height, weight float64, activityLevel, goal string) (entities.ProfileAttributes, error) {
	birth, err := utils.ParseDate(birthDate)
	if err != nil {
		return entities.ProfileAttributes{}, pkgerrors.NewValidationError("birthDate must be a date formatted as YYYY-MM-DD")
	}
	return entities.ProfileAttributes{
		Name:          name,
		BirthDate:     birth,
		Gender:        entities.Gender(gender),
		Height:        height,
		Weight:        weight,
		ActivityLevel: entities.ActivityLevel(activityLevel),
		Goal:          entities.GoalType(goal),
	}, nil
}
