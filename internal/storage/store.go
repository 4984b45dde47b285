package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/RishiKendai/assignment-portal/internal/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("object not found")

// Store keeps uploaded documents. Put returns a reference that Get and
// Delete accept later.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

// New builds the store selected by cfg.StorageProvider
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageProvider {
	case config.StorageB2:
		return NewB2Store(ctx, cfg.B2AccountID, cfg.B2AppKey, cfg.B2Bucket)
	case config.StorageOSS:
		return NewOSSStore(cfg.OSSEndpoint, cfg.OSSAccessKeyID, cfg.OSSAccessKeySecret, cfg.OSSBucket)
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory document storage, uploads are lost on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}

// AssignmentKey builds the object key for an assignment file
func AssignmentKey(assignmentID, fileName string) string {
	return fmt.Sprintf("assignments/%s/%s%s", assignmentID, uuid.NewString(), extension(fileName))
}

// SubmissionKey builds the object key for a student's submission file
func SubmissionKey(assignmentID, studentID, fileName string) string {
	return fmt.Sprintf("submissions/%s/%s/%s%s", assignmentID, studentID, uuid.NewString(), extension(fileName))
}

func extension(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) > 10 {
		return ""
	}
	return ext
}
