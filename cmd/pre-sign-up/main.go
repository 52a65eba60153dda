package main

import (
	"log"

	"foodiary/interfaces/triggers"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	lambda.Start(triggers.PreSignUp(logger))
}
