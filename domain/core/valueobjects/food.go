package valueobjects

// Food is one recognised item of a meal
type Food struct {
	Name          string  `json:"name" dynamodbav:"name"`
	Quantity      string  `json:"quantity" dynamodbav:"quantity"`
	Calories      float64 `json:"calories" dynamodbav:"calories"`
	Proteins      float64 `json:"proteins" dynamodbav:"proteins"`
	Carbohydrates float64 `json:"carbohydrates" dynamodbav:"carbohydrates"`
	Fats          float64 `json:"fats" dynamodbav:"fats"`
}
