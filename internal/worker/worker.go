package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/filesmanager/internal/metrics"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/queue"
	"github.com/templui/filesmanager/internal/repository"
	"github.com/templui/filesmanager/internal/storage"
	"github.com/templui/filesmanager/internal/thumbnail"
)

var (
	ErrMissingFileID = errors.New("missing fileId")
	ErrMissingUserID = errors.New("missing userId")
	ErrFileNotFound  = errors.New("file not found")
)

// Welcomer sends the post-registration greeting. Implemented by *service.UserService.
type Welcomer interface {
	SendWelcome(ctx context.Context, userID string) error
}

// Worker holds the job handlers run by the background consumer.
type Worker struct {
	fileRepository repository.FileRepository
	storage        storage.Storage
	welcomer       Welcomer
}

func New(fileRepository repository.FileRepository, storage storage.Storage, welcomer Welcomer) *Worker {
	return &Worker{
		fileRepository: fileRepository,
		storage:        storage,
		welcomer:       welcomer,
	}
}

// HandleThumbnail renders the 500, 250 and 100 pixel renditions of an image.
// Redelivered jobs overwrite the same renditions.
func (w *Worker) HandleThumbnail(ctx context.Context, job *queue.Job) error {
	var payload model.ThumbnailJob
	if err := job.Decode(&payload); err != nil {
		return fmt.Errorf("decode thumbnail job: %w", err)
	}

	if payload.FileID == "" {
		return ErrMissingFileID
	}
	if payload.UserID == "" {
		return ErrMissingUserID
	}

	node, err := w.fileRepository.ByID(ctx, payload.FileID)
	if errors.Is(err, repository.ErrNodeNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}
	if !node.OwnedBy(payload.UserID) {
		return ErrFileNotFound
	}

	location, err := node.Location()
	if err != nil {
		return fmt.Errorf("file %s: %w", node.ID, err)
	}

	err = thumbnail.Generate(ctx, w.storage, location)
	if err != nil {
		return fmt.Errorf("file %s: %w", node.ID, err)
	}

	slog.Info("thumbnails generated", "file_id", node.ID, "widths", thumbnail.Widths)
	return nil
}

// HandleWelcome greets a newly registered user.
func (w *Worker) HandleWelcome(ctx context.Context, job *queue.Job) error {
	var payload model.WelcomeJob
	if err := job.Decode(&payload); err != nil {
		return fmt.Errorf("decode welcome job: %w", err)
	}

	if payload.UserID == "" {
		return ErrMissingUserID
	}

	return w.welcomer.SendWelcome(ctx, payload.UserID)
}

// Instrument records processing metrics for every job handled by h.
func Instrument(queueName string, h queue.Handler) queue.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		start := time.Now()
		err := h(ctx, job)
		metrics.RecordJobProcessed(queueName, err == nil, time.Since(start))
		return err
	}
}
