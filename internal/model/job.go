package model

// Queue names shared by producers and the worker.
const (
	QueueThumbnails = "image transcoding"
	QueueWelcome    = "welcome user"
)

// ThumbnailJob asks the worker to render the thumbnails of one uploaded image.
type ThumbnailJob struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}

// WelcomeJob is produced once per registration.
type WelcomeJob struct {
	UserID string `json:"userId"`
}
