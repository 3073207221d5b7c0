package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/storage"
	"github.com/templui/filesmanager/internal/thumbnail"
)

const defaultContentType = "application/octet-stream"

// ContentService moves node content in and out of the content store.
type ContentService struct {
	storage storage.Storage
}

func NewContentService(storage storage.Storage) *ContentService {
	return &ContentService{storage: storage}
}

// Store decodes base64 data and writes it under a fresh name. Text files are
// stored as UTF-8 with invalid sequences replaced; images are stored raw.
// It returns the location and the number of bytes written.
func (s *ContentService) Store(ctx context.Context, data string, nodeType model.NodeType) (string, int, error) {
	decoded, err := decodeBase64(data)
	if err != nil {
		return "", 0, ErrInvalidData
	}

	if nodeType == model.NodeTypeFile {
		decoded = []byte(strings.ToValidUTF8(string(decoded), "\uFFFD"))
	}

	location := s.storage.Location(uuid.New().String())
	err = s.storage.Save(ctx, location, bytes.NewReader(decoded))
	if err != nil {
		return "", 0, fmt.Errorf("failed to save content: %w", err)
	}

	return location, len(decoded), nil
}

// Discard removes content whose metadata could not be recorded.
func (s *ContentService) Discard(ctx context.Context, location string) {
	err := s.storage.Delete(ctx, location)
	if err != nil {
		slog.Error("failed to delete content during cleanup", "error", err, "location", location)
	}
}

// Retrieve opens the node's content, or one of its renditions when size is set.
// The caller closes the returned reader.
func (s *ContentService) Retrieve(ctx context.Context, node *model.Node, size string) (io.ReadCloser, string, error) {
	location, err := node.Location()
	if err != nil {
		return nil, "", ErrNotAFile
	}

	if size != "" {
		width, err := strconv.Atoi(size)
		if err != nil || !thumbnail.ValidWidth(width) {
			return nil, "", ErrNotFound
		}
		location = thumbnail.RenditionLocation(location, width)
	}

	rc, err := s.storage.Open(ctx, location)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open content: %w", err)
	}

	return rc, ContentType(node.Name), nil
}

// ContentType resolves a MIME type from the file name extension.
func ContentType(name string) string {
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		return defaultContentType
	}
	return ct
}

// decodeBase64 accepts standard and URL-safe alphabets, with or without
// padding, ignoring whitespace.
func decodeBase64(data string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var lastErr error
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(cleaned)
		if err == nil {
			return decoded, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
