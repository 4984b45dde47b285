package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type OSSStore struct {
	bucket *oss.Bucket
}

func NewOSSStore(endpoint, accessKeyID, accessKeySecret, bucketName string) (*OSSStore, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create oss client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &OSSStore{bucket: bucket}, nil
}

func (s *OSSStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := s.bucket.PutObject(key, r, oss.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return key, nil
}

func (s *OSSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	body, err := s.bucket.GetObject(ref, oss.WithContext(ctx))
	if isOSSNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", ref, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", ref, err)
	}
	return data, nil
}

// Delete is idempotent on OSS: removing a missing key succeeds
func (s *OSSStore) Delete(ctx context.Context, ref string) error {
	if err := s.bucket.DeleteObject(ref, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", ref, err)
	}
	return nil
}

func isOSSNotFound(err error) bool {
	if err == nil {
		return false
	}
	var svcErr oss.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode == http.StatusNotFound
	}
	var svcErrPtr *oss.ServiceError
	if errors.As(err, &svcErrPtr) {
		return svcErrPtr.StatusCode == http.StatusNotFound
	}
	return false
}
