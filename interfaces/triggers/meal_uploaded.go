package triggers

import (
	"context"
	"errors"

	"foodiary/application/commands"
	"foodiary/application/commands/bus"
	pkgerrors "foodiary/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// CommandSender dispatches commands to their handlers
type CommandSender interface {
	Send(ctx context.Context, cmd bus.Command) (interface{}, error)
}

// MealUploaded handles object-created notifications of the meals bucket.
// Records about unknown or malformed objects are skipped; any other failure
// fails the batch so that S3 retries it.
func MealUploaded(commandBus CommandSender, logger *zap.Logger) func(ctx context.Context, event events.S3Event) error {
	return func(ctx context.Context, event events.S3Event) error {
		var errs []error
		for _, record := range event.Records {
			key := record.S3.Object.URLDecodedKey
			if key == "" {
				key = record.S3.Object.Key
			}

			_, err := commandBus.Send(ctx, commands.MarkMealQueuedCommand{FileKey: key})
			switch {
			case err == nil:
			case pkgerrors.IsNotFound(err), pkgerrors.IsValidation(err):
				logger.Warn("skipping upload",
					zap.String("bucket", record.S3.Bucket.Name),
					zap.String("key", key),
					zap.Error(err))
			default:
				logger.Error("failed to queue meal",
					zap.String("bucket", record.S3.Bucket.Name),
					zap.String("key", key),
					zap.Error(err))
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
