package handlers

import (
	"context"

	"foodiary/application/commands"
	"foodiary/application/ports"
	"foodiary/domain/core/entities"
	"foodiary/domain/events"
	"foodiary/pkg/observability"
	"foodiary/pkg/utils"

	"go.uber.org/zap"
)

// MarkMealQueuedHandler moves a meal forward once its upload landed
type MarkMealQueuedHandler struct {
	meals     ports.MealRepository
	publisher ports.EventPublisher
	metrics   ports.MetricsRecorder
	logger    *zap.Logger
}

// NewMarkMealQueuedHandler creates a new handler instance
func NewMarkMealQueuedHandler(
	meals ports.MealRepository,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *MarkMealQueuedHandler {
	return &MarkMealQueuedHandler{meals: meals, publisher: publisher, metrics: metrics, logger: logger}
}

// Handle queues the meal and publishes MealQueued. Storage notifications are
// delivered at least once: a redelivery for an already queued meal publishes
// the event again, later states are left alone.
func (h *MarkMealQueuedHandler) Handle(ctx context.Context, cmd commands.MarkMealQueuedCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	accountID, mealID, err := entities.ParseMealFileKey(cmd.FileKey)
	if err != nil {
		return err
	}

	meal, err := h.meals.FindByID(ctx, accountID, mealID)
	if err != nil {
		return err
	}

	now := utils.NowUTC()
	switch meal.Status() {
	case entities.MealStatusUploading:
		if err := meal.MarkQueued(now); err != nil {
			return err
		}
		if err := h.meals.Save(ctx, meal); err != nil {
			return err
		}
		if h.metrics != nil {
			h.metrics.RecordBusinessMetric(ctx, observability.MetricMealsQueued, 1, map[string]string{
				"InputType": string(meal.InputType()),
			})
		}
		return h.publish(ctx, meal.Events())

	case entities.MealStatusQueued:
		h.logger.Info("meal already queued, publishing again", zap.String("meal_id", mealID))
		return h.publish(ctx, []events.DomainEvent{
			events.NewMealQueued(meal.ID(), meal.AccountID(), string(meal.InputType()), meal.InputFileKey(), now),
		})

	default:
		h.logger.Info("ignoring upload notification",
			zap.String("meal_id", mealID),
			zap.String("status", string(meal.Status())))
		return nil
	}
}

func (h *MarkMealQueuedHandler) publish(ctx context.Context, evts []events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}
	if err := h.publisher.PublishBatch(ctx, evts); err != nil {
		h.logger.Error("failed to publish meal events", zap.Int("count", len(evts)), zap.Error(err))
		return err
	}
	return nil
}
