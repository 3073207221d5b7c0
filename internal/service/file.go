package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/templui/filesmanager/internal/metrics"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/repository"
	"github.com/templui/filesmanager/internal/validation"
)

// CreateNodeInput is a node creation request. Data is base64 content and is
// ignored for folders.
type CreateNodeInput struct {
	Name     string
	Type     string
	ParentID model.ParentID
	IsPublic bool
	Data     string
}

type FileService struct {
	fileRepository repository.FileRepository
	content        *ContentService
	thumbnails     Enqueuer
}

func NewFileService(fileRepository repository.FileRepository, content *ContentService, thumbnails Enqueuer) *FileService {
	return &FileService{
		fileRepository: fileRepository,
		content:        content,
		thumbnails:     thumbnails,
	}
}

// CreateNode validates and records a new node for userID. Content is written
// before the metadata row; if the row cannot be inserted the content is removed.
func (s *FileService) CreateNode(ctx context.Context, userID string, in CreateNodeInput) (*model.Node, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	err := validation.ValidateNode(validation.NodeInput{
		Name: in.Name,
		Type: in.Type,
		Data: in.Data,
	})
	if err != nil {
		return nil, err
	}

	nodeType := model.NodeType(in.Type)

	if !in.ParentID.IsRoot() {
		parent, err := s.fileRepository.ByID(ctx, string(in.ParentID))
		if errors.Is(err, repository.ErrNodeNotFound) {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get parent: %w", err)
		}
		if parent.Type != model.NodeTypeFolder {
			return nil, ErrParentNotFolder
		}
	}

	if nodeType == model.NodeTypeFolder {
		node := model.NewFolder(userID, in.Name, in.ParentID, in.IsPublic)
		err := s.fileRepository.Create(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("failed to create folder record: %w", err)
		}
		metrics.RecordNodeCreated(string(nodeType), 0)
		return node, nil
	}

	location, size, err := s.content.Store(ctx, in.Data, nodeType)
	if err != nil {
		return nil, err
	}

	node, err := model.NewContentNode(userID, in.Name, nodeType, in.ParentID, in.IsPublic, location)
	if err != nil {
		s.content.Discard(ctx, location)
		return nil, err
	}

	err = s.fileRepository.Create(ctx, node)
	if err != nil {
		// If DB insert fails, try to cleanup the stored content
		s.content.Discard(ctx, location)
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}
	metrics.RecordNodeCreated(string(nodeType), size)

	if nodeType == model.NodeTypeImage {
		s.enqueueThumbnails(ctx, node)
	}

	return node, nil
}

// The node is already stored, so a queue failure only delays renditions.
func (s *FileService) enqueueThumbnails(ctx context.Context, node *model.Node) {
	jobID, err := s.thumbnails.Add(ctx, model.ThumbnailJob{FileID: node.ID, UserID: node.UserID})
	metrics.RecordJobEnqueued(model.QueueThumbnails, err == nil)
	if err != nil {
		slog.Error("failed to enqueue thumbnail job", "file_id", node.ID, "error", err)
		return
	}
	slog.Debug("thumbnail job enqueued", "file_id", node.ID, "job_id", jobID)
}

// Node returns a node owned by userID. Nodes of other users are reported as missing.
func (s *FileService) Node(ctx context.Context, userID, id string) (*model.Node, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	node, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !node.OwnedBy(userID) {
		return nil, ErrNotFound
	}

	return node, nil
}

// ListNodes returns one page of userID's nodes, optionally limited to one folder.
func (s *FileService) ListNodes(ctx context.Context, userID string, parentID *model.ParentID, page int) ([]*model.Node, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if page < 0 {
		page = 0
	}

	nodes, err := s.fileRepository.List(ctx, repository.FileFilter{
		UserID:   userID,
		ParentID: parentID,
		Page:     page,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return nodes, nil
}

// SetVisibility publishes or unpublishes a node owned by userID.
func (s *FileService) SetVisibility(ctx context.Context, userID, id string, isPublic bool) (*model.Node, error) {
	node, err := s.Node(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	err = s.fileRepository.SetPublic(ctx, node.ID, isPublic)
	if errors.Is(err, repository.ErrNodeNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update visibility: %w", err)
	}

	node.IsPublic = isPublic
	return node, nil
}

// Content opens a node's content for userID, who may be empty for anonymous
// callers. Private nodes of other users are reported as missing.
func (s *FileService) Content(ctx context.Context, userID, id, size string) (io.ReadCloser, string, error) {
	node, err := s.byID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !node.ReadableBy(userID) {
		return nil, "", ErrNotFound
	}

	return s.content.Retrieve(ctx, node, size)
}

func (s *FileService) byID(ctx context.Context, id string) (*model.Node, error) {
	node, err := s.fileRepository.ByID(ctx, id)
	if errors.Is(err, repository.ErrNodeNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return node, nil
}
