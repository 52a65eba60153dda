package main

import (
	"context"
	"log"
	"strconv"

	"foodiary/infrastructure/config"
	"foodiary/infrastructure/di"
	"foodiary/interfaces/triggers"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Logger.Sync()

	handle := triggers.MealUploaded(container.CommandBus, container.Logger)
	lambda.Start(func(ctx context.Context, event events.S3Event) error {
		return container.Tracer.TraceFunction(ctx, "meal-uploaded", func(ctx context.Context) error {
			container.Tracer.AddAnnotation(ctx, "records", strconv.Itoa(len(event.Records)))
			return handle(ctx, event)
		})
	})
}
