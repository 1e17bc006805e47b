package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/mango/internal/storage"
	"github.com/OFFIS-RIT/mango/pkg/logger"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// ProcessDeleteMessage removes the stored original of a deleted
// document. The registry and index were already updated by the API
// handler; this only cleans up object storage.
func ProcessDeleteMessage(ctx context.Context, s3Client *awss3.Client, msg string) error {
	var data DeleteMessage
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		return fmt.Errorf("failed to unmarshal delete message: %w", err)
	}

	if data.Key != "" {
		if err := storage.DeleteFile(ctx, s3Client, data.Key); err != nil {
			return err
		}
		logger.Info("[Queue] Deleted stored original", "id", data.DocumentID, "key", data.Key)
		return nil
	}

	prefix := fmt.Sprintf("uploads/%s/", data.DocumentID)
	if err := storage.DeleteFolder(ctx, s3Client, prefix); err != nil {
		return err
	}
	logger.Info("[Queue] Deleted stored originals", "id", data.DocumentID, "prefix", prefix)
	return nil
}
