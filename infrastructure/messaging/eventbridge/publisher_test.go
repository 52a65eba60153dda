package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"foodiary/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiStub struct {
	inputs []*eventbridge.PutEventsInput
	output *eventbridge.PutEventsOutput
}

func (a *apiStub) PutEvents(_ context.Context, params *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	a.inputs = append(a.inputs, params)
	if a.output != nil {
		return a.output, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func mealEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		id := fmt.Sprintf("meal-%d", i)
		out[i] = events.NewMealQueued(id, "acc-1", "PICTURE", "acc-1/"+id+".jpeg", time.Now())
	}
	return out
}

func TestPublisher_ChunksBatches(t *testing.T) {
	// Arrange
	api := &apiStub{}
	publisher := NewPublisher(api, "foodiary-bus", zap.NewNop())

	// Act
	err := publisher.PublishBatch(context.Background(), mealEvents(23))

	// Assert
	require.NoError(t, err)
	require.Len(t, api.inputs, 3)
	assert.Len(t, api.inputs[0].Entries, 10)
	assert.Len(t, api.inputs[1].Entries, 10)
	assert.Len(t, api.inputs[2].Entries, 3)
}

func TestPublisher_EntryShape(t *testing.T) {
	// Arrange
	api := &apiStub{}
	publisher := NewPublisher(api, "foodiary-bus", zap.NewNop())

	// Act
	err := publisher.Publish(context.Background(), mealEvents(1)[0])

	// Assert
	require.NoError(t, err)
	entry := api.inputs[0].Entries[0]
	assert.Equal(t, "foodiary-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.SourceBackend, aws.ToString(entry.Source))
	assert.Equal(t, events.EventTypeMealQueued, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "meal-0", detail["meal_id"])
	assert.Equal(t, "acc-1/meal-0.jpeg", detail["input_file_key"])
}

func TestPublisher_FailedEntries(t *testing.T) {
	// Arrange
	api := &apiStub{output: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{
			{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try again")},
		},
	}}
	publisher := NewPublisher(api, "foodiary-bus", zap.NewNop())

	// Act
	err := publisher.PublishBatch(context.Background(), mealEvents(1))

	// Assert
	assert.EqualError(t, err, "1 events failed to publish")
}
