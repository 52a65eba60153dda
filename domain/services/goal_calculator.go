package services

import (
	"math"
	"time"

	"foodiary/domain/config"
	"foodiary/domain/core/entities"
)

var activityFactors = map[entities.ActivityLevel]float64{
	entities.ActivitySedentary: 1.2,
	entities.ActivityLight:     1.375,
	entities.ActivityModerate:  1.55,
	entities.ActivityHeavy:     1.725,
	entities.ActivityAthlete:   1.9,
}

// GoalCalculator derives daily nutrition targets from a profile using the
// Mifflin-St Jeor basal metabolic rate.
type GoalCalculator struct {
	cfg *config.DomainConfig
}

// NewGoalCalculator creates a calculator; a nil config uses the defaults
func NewGoalCalculator(cfg *config.DomainConfig) *GoalCalculator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &GoalCalculator{cfg: cfg}
}

// Calculate returns the targets for the profile as of now
func (c *GoalCalculator) Calculate(profile *entities.Profile, now time.Time) entities.Macros {
	weight := profile.Weight()

	bmr := 10*weight + 6.25*profile.Height() - 5*float64(profile.Age(now))
	if profile.Gender() == entities.GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	factor, ok := activityFactors[profile.ActivityLevel()]
	if !ok {
		factor = activityFactors[entities.ActivitySedentary]
	}
	calories := bmr * factor

	switch profile.Goal() {
	case entities.GoalLose:
		calories -= c.cfg.CalorieAdjustment
	case entities.GoalGain:
		calories += c.cfg.CalorieAdjustment
	}
	calories = math.Max(calories, c.cfg.MinDailyCalories)

	proteins := c.cfg.ProteinGramsPerKg * weight
	fats := c.cfg.FatGramsPerKg * weight
	carbohydrates := (calories - proteins*4 - fats*9) / 4

	return entities.Macros{
		Calories:      math.Round(calories),
		Proteins:      math.Round(proteins),
		Carbohydrates: math.Max(1, math.Round(carbohydrates)),
		Fats:          math.Round(fats),
	}
}
