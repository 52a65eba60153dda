package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Meal upload constraints
	MaxUploadBytes    int64
	MinUploadBytes    int64
	UploadURLLifetime time.Duration
	MaxMealAttempts   int

	// Account constraints
	MinPasswordLength int

	// Goal calculation
	ProteinGramsPerKg float64
	FatGramsPerKg     float64
	CalorieAdjustment float64 // applied as -/+ for LOSE/GAIN
	MinDailyCalories  float64
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Meal upload constraints
		MaxUploadBytes:    10 * 1024 * 1024,
		MinUploadBytes:    1,
		UploadURLLifetime: 5 * time.Minute,
		MaxMealAttempts:   3,

		// Account constraints
		MinPasswordLength: 8,

		// Goal calculation
		ProteinGramsPerKg: 2.0,
		FatGramsPerKg:     0.9,
		CalorieAdjustment: 500,
		MinDailyCalories:  1200,
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MinUploadBytes < 1 || c.MaxUploadBytes < c.MinUploadBytes {
		return fmt.Errorf("invalid upload size range [%d, %d]", c.MinUploadBytes, c.MaxUploadBytes)
	}
	if c.MaxMealAttempts < 1 {
		return fmt.Errorf("max meal attempts must be positive")
	}
	if c.ProteinGramsPerKg <= 0 || c.FatGramsPerKg <= 0 {
		return fmt.Errorf("macro ratios must be positive")
	}
	return nil
}
