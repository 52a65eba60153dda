package ports

import (
	"context"
	"time"

	"foodiary/domain/core/entities"
	"foodiary/domain/core/valueobjects"
	"foodiary/domain/events"
)

// AccountRepository defines the interface for account persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type AccountRepository interface {
	// FindByEmail looks an account up through the email index; nil when absent
	FindByEmail(ctx context.Context, email string) (*entities.Account, error)

	// FindByID retrieves an account by its ID
	FindByID(ctx context.Context, accountID string) (*entities.Account, error)

	// Create persists a new account (unconditional put)
	Create(ctx context.Context, account *entities.Account) error
}

// ProfileRepository defines the interface for profile persistence
type ProfileRepository interface {
	FindByAccountID(ctx context.Context, accountID string) (*entities.Profile, error)
	Create(ctx context.Context, profile *entities.Profile) error

	// Save writes the mutable attributes of an existing profile
	Save(ctx context.Context, profile *entities.Profile) error
}

// GoalRepository defines the interface for goal persistence
type GoalRepository interface {
	FindByAccountID(ctx context.Context, accountID string) (*entities.Goal, error)
	Create(ctx context.Context, goal *entities.Goal) error

	// Save writes the targets of an existing goal
	Save(ctx context.Context, goal *entities.Goal) error
}

// MealRepository defines the interface for meal persistence
type MealRepository interface {
	// FindByID returns the meal when it exists and belongs to accountID
	FindByID(ctx context.Context, accountID, mealID string) (*entities.Meal, error)
	Create(ctx context.Context, meal *entities.Meal) error

	// Save writes the processing state of an existing meal
	Save(ctx context.Context, meal *entities.Meal) error
}

// SignUpUnitOfWork commits everything a new account consists of at once
type SignUpUnitOfWork interface {
	Run(ctx context.Context, account *entities.Account, goal *entities.Goal, profile *entities.Profile) error
}

// MealSummary is a meal as shown in a day listing
type MealSummary struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Icon      string              `json:"icon"`
	Foods     []valueobjects.Food `json:"foods"`
	CreatedAt time.Time           `json:"createdAt"`
}

// MealsByDateReader lists the processed meals of one account and day
type MealsByDateReader interface {
	Execute(ctx context.Context, accountID string, date time.Time) ([]MealSummary, error)
}

// ProfileAndGoal is the combined read model of an account's profile and goal
type ProfileAndGoal struct {
	Profile *entities.Profile
	Goal    *entities.Goal
}

// ProfileAndGoalReader reads profile and goal in one round trip
type ProfileAndGoalReader interface {
	Execute(ctx context.Context, accountID string) (*ProfileAndGoal, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
