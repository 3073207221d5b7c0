package service

import (
	"context"
	"errors"

	"github.com/templui/filesmanager/internal/validation"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrParentNotFound     = errors.New("parent not found")
	ErrParentNotFolder    = errors.New("parent is not a folder")
	ErrNotAFile           = errors.New("a folder doesn't have content")
	ErrInvalidData        = errors.New("data is not valid base64")
	ErrEmailAlreadyExists = errors.New("email already exists")

	ErrMissingName     = validation.ErrMissingName
	ErrMissingType     = validation.ErrMissingType
	ErrMissingData     = validation.ErrMissingData
	ErrMissingEmail    = validation.ErrMissingEmail
	ErrMissingPassword = validation.ErrMissingPassword
)

// Enqueuer adds a job payload to a durable queue.
type Enqueuer interface {
	Add(ctx context.Context, payload any) (string, error)
}
