package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"foodiary/application/commands"
	"foodiary/application/ports"
	"foodiary/domain/config"
	"foodiary/domain/core/entities"
	pkgerrors "foodiary/pkg/errors"
	"foodiary/pkg/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CreateMealHandler handles the CreateMealCommand
type CreateMealHandler struct {
	meals   ports.MealRepository
	storage ports.MealsFileStorage
	config  *config.DomainConfig
	metrics ports.MetricsRecorder
	logger  *zap.Logger
}

// NewCreateMealHandler creates a new handler instance
func NewCreateMealHandler(
	meals ports.MealRepository,
	storage ports.MealsFileStorage,
	cfg *config.DomainConfig,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *CreateMealHandler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &CreateMealHandler{
		meals:   meals,
		storage: storage,
		config:  cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Handle stores the meal in UPLOADING state and presigns its upload. Both
// are independent and run concurrently.
func (h *CreateMealHandler) Handle(ctx context.Context, cmd commands.CreateMealCommand) (*commands.CreateMealResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.File.Size < h.config.MinUploadBytes || cmd.File.Size > h.config.MaxUploadBytes {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf(
			"file.size must be between %d and %d bytes", h.config.MinUploadBytes, h.config.MaxUploadBytes))
	}

	meal, err := entities.NewMeal(cmd.AccountID, inputTypeOf(cmd.File.Type))
	if err != nil {
		return nil, err
	}

	// the first failure cancels the other call
	var signature *ports.UploadSignature
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.meals.Create(gctx, meal)
	})
	g.Go(func() error {
		var err error
		signature, err = h.storage.PresignUpload(gctx, ports.UploadRequest{
			FileKey:     meal.InputFileKey(),
			ContentType: cmd.File.Type,
			Size:        cmd.File.Size,
			MealID:      meal.ID(),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	encoded, err := encodeUploadSignature(signature, cmd.File.Type)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode upload signature").WithCause(err)
	}

	h.logger.Info("meal created",
		zap.String("meal_id", meal.ID()),
		zap.String("account_id", cmd.AccountID),
		zap.String("input_type", string(meal.InputType())))
	if h.metrics != nil {
		h.metrics.RecordBusinessMetric(ctx, observability.MetricMealsCreated, 1, map[string]string{
			"InputType": string(meal.InputType()),
		})
	}

	return &commands.CreateMealResult{
		MealID:          meal.ID(),
		UploadSignature: encoded,
	}, nil
}

func inputTypeOf(contentType string) entities.InputType {
	if contentType == commands.ContentTypeAudio {
		return entities.InputTypeAudio
	}
	return entities.InputTypePicture
}

// encodeUploadSignature packs the presigned post into the opaque string the
// client decodes: base64 of {"url", "fields"}
func encodeUploadSignature(sig *ports.UploadSignature, contentType string) (string, error) {
	fields := make(map[string]string, len(sig.Fields)+1)
	for k, v := range sig.Fields {
		fields[k] = v
	}
	fields["Content-Type"] = contentType

	raw, err := json.Marshal(ports.UploadSignature{URL: sig.URL, Fields: fields})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
