// Package s3 issues presigned POST uploads into the meals bucket
package s3

import (
	"context"
	"fmt"
	"time"

	"foodiary/application/ports"
	pkgerrors "foodiary/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// MealIDField is the object metadata form field that ties an upload to its meal
const MealIDField = "x-amz-meta-mealid"

// Presigner is the subset of s3.PresignClient the storage uses
type Presigner interface {
	PresignPostObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignPostOptions)) (*s3.PresignedPostRequest, error)
}

// MealsFileStorage implements ports.MealsFileStorage
type MealsFileStorage struct {
	presigner Presigner
	bucket    string
	lifetime  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewMealsFileStorage creates a storage bound to one bucket. Upload grants
// expire after lifetime.
func NewMealsFileStorage(presigner Presigner, bucket string, lifetime time.Duration, logger *zap.Logger) *MealsFileStorage {
	return &MealsFileStorage{
		presigner: presigner,
		bucket:    bucket,
		lifetime:  lifetime,
		logger:    logger,
		now:       time.Now,
	}
}

var _ ports.MealsFileStorage = (*MealsFileStorage)(nil)

// PresignUpload returns a form post that accepts exactly one object: the
// given key, content type and byte size
func (s *MealsFileStorage) PresignUpload(ctx context.Context, req ports.UploadRequest) (*ports.UploadSignature, error) {
	expiresAt := s.now().Add(s.lifetime)

	post, err := s.presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(req.FileKey),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = s.lifetime
		o.Conditions = Conditions(s.bucket, req)
	})
	if err != nil {
		s.logger.Error("failed to presign upload",
			zap.String("bucket", s.bucket),
			zap.String("key", req.FileKey),
			zap.Error(err))
		return nil, pkgerrors.NewExternalError("s3", fmt.Errorf("failed to presign upload: %w", err))
	}

	fields := make(map[string]string, len(post.Values)+1)
	for k, v := range post.Values {
		fields[k] = v
	}
	fields[MealIDField] = req.MealID

	return &ports.UploadSignature{
		URL:       post.URL,
		Fields:    fields,
		ExpiresAt: expiresAt,
	}, nil
}

// Conditions is the POST policy for one upload
func Conditions(bucket string, req ports.UploadRequest) []interface{} {
	return []interface{}{
		map[string]string{"bucket": bucket},
		[]interface{}{"eq", "$key", req.FileKey},
		[]interface{}{"eq", "$Content-Type", req.ContentType},
		[]interface{}{"content-length-range", req.Size, req.Size},
		[]interface{}{"eq", "$" + MealIDField, req.MealID},
	}
}
