package commands

import "foodiary/pkg/utils"

// Accepted upload content types
const (
	ContentTypeAudio = "audio/m4a"
	ContentTypeJPEG  = "image/jpeg"
	ContentTypePNG   = "image/png"
)

// MealFile describes the raw upload a meal is logged with
type MealFile struct {
	Type string `json:"type" validate:"required,oneof=audio/m4a image/jpeg image/png"`
	Size int64  `json:"size" validate:"required,gte=1"`
}

// CreateMealCommand registers a meal and grants its upload
type CreateMealCommand struct {
	AccountID string   `json:"-" validate:"required"`
	File      MealFile `json:"file" validate:"required"`
}

// CreateMealResult is returned to the client, which then uploads the file
// with the signature
type CreateMealResult struct {
	MealID          string `json:"mealId"`
	UploadSignature string `json:"uploadSignature"`
}

// MarkMealQueuedCommand is issued when the upload of a meal lands in storage
type MarkMealQueuedCommand struct {
	FileKey string `validate:"required"`
}

// Validate checks the command against its field rules
func (c CreateMealCommand) Validate() error { return utils.ValidateStruct(c) }

// Validate checks the command against its field rules
func (c MarkMealQueuedCommand) Validate() error { return utils.ValidateStruct(c) }
