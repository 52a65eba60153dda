// Package local fakes the meals bucket for runs without S3
package local

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"foodiary/application/ports"
)

// MealsFileStorage hands out upload grants against a fake endpoint and
// remembers them
type MealsFileStorage struct {
	mu       sync.Mutex
	baseURL  string
	lifetime time.Duration
	grants   []ports.UploadRequest
}

// NewMealsFileStorage creates a fake storage; baseURL is returned as the
// post URL
func NewMealsFileStorage(baseURL string, lifetime time.Duration) *MealsFileStorage {
	return &MealsFileStorage{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		lifetime: lifetime,
	}
}

var _ ports.MealsFileStorage = (*MealsFileStorage)(nil)

// PresignUpload records the request and returns an unsigned form
func (s *MealsFileStorage) PresignUpload(ctx context.Context, req ports.UploadRequest) (*ports.UploadSignature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grants = append(s.grants, req)
	return &ports.UploadSignature{
		URL: s.baseURL,
		Fields: map[string]string{
			"key":               req.FileKey,
			"x-amz-meta-mealid": req.MealID,
			"content-length":    fmt.Sprint(req.Size),
		},
		ExpiresAt: time.Now().Add(s.lifetime),
	}, nil
}

// Grants returns every upload granted so far
func (s *MealsFileStorage) Grants() []ports.UploadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.UploadRequest(nil), s.grants...)
}
