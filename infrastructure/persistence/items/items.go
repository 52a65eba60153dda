// Package items maps domain entities to and from their single-table records.
// Every key derivation function here is part of the stored data contract:
// changing one orphans the records already written under the old key.
package items

import (
	"fmt"
	"time"

	"foodiary/infrastructure/persistence/abstractions"
	pkgerrors "foodiary/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Record type discriminators stored in the "type" attribute
const (
	TypeAccount    = "Account"
	TypeProfile    = "Profile"
	TypeGoal       = "Goal"
	TypeMeal       = "Meal"
	TypeEmailGuard = "AccountEmail"
)

// timestampLayout is used for every stored instant; always UTC
const timestampLayout = time.RFC3339Nano

// Keys is the key material shared by every record
type Keys struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK string `dynamodbav:"GSI1SK,omitempty"`
	Type   string `dynamodbav:"type"`
}

// Key returns the base-table key of the record
func (k Keys) Key() abstractions.Key {
	return abstractions.Key{PK: k.PK, SK: k.SK}
}

// TypeOf reads the discriminator of a raw item
func TypeOf(item abstractions.Item) string {
	if v, ok := item[abstractions.AttrType].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func marshal(recordType string, v interface{}) (abstractions.Item, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s item: %w", recordType, err)
	}
	return item, nil
}

// unmarshal decodes item into out after checking that every required
// attribute is present
func unmarshal(recordType string, item abstractions.Item, out interface{}, required ...string) error {
	if item == nil {
		return pkgerrors.NewMalformedRecordError(recordType, "item")
	}
	for _, name := range required {
		if av, ok := item[name]; !ok || isNull(av) {
			return pkgerrors.NewMalformedRecordError(recordType, name)
		}
	}
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return pkgerrors.NewMalformedRecordError(recordType, "item").WithCause(err)
	}
	return nil
}

func isNull(av types.AttributeValue) bool {
	_, ok := av.(*types.AttributeValueMemberNULL)
	return ok
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(recordType, field, value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, pkgerrors.NewMalformedRecordError(recordType, field).WithCause(err)
	}
	return t.UTC(), nil
}
