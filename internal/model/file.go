package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNoContent is returned when content is requested from a folder.
var ErrNoContent = errors.New("node has no content")

type NodeType string

const (
	NodeTypeFolder NodeType = "folder"
	NodeTypeFile   NodeType = "file"
	NodeTypeImage  NodeType = "image"
)

func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeFolder, NodeTypeFile, NodeTypeImage:
		return true
	}
	return false
}

// HasContent reports whether nodes of this type carry a stored object.
func (t NodeType) HasContent() bool {
	return t == NodeTypeFile || t == NodeTypeImage
}

// ParentID references the containing folder. RootParentID means the node has no parent.
// On the wire the root is the number 0 and any other parent is its id string.
type ParentID string

const RootParentID ParentID = "0"

func (p ParentID) IsRoot() bool {
	return p == "" || p == RootParentID
}

func (p ParentID) MarshalJSON() ([]byte, error) {
	if p.IsRoot() {
		return []byte("0"), nil
	}
	return json.Marshal(string(p))
}

func (p *ParentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = RootParentID
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParseParentID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parentId must be a string or a number: %w", err)
	}
	*p = ParseParentID(n.String())
	return nil
}

// ParseParentID maps "", "0" and numeric zero spellings to the root sentinel.
func ParseParentID(s string) ParentID {
	if s == "" {
		return RootParentID
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 {
		return RootParentID
	}
	return ParentID(s)
}

// Node is a file or folder record. Every variant shares the base fields; only
// file and image nodes carry a LocalPath into the content store.
type Node struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"` // Owner, never changes
	Name      string    `db:"name" json:"name"`
	Type      NodeType  `db:"type" json:"type"`
	IsPublic  bool      `db:"is_public" json:"isPublic"`
	ParentID  ParentID  `db:"parent_id" json:"parentId"`
	LocalPath *string   `db:"local_path" json:"-"` // nil for folders
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// NewFolder builds a folder node. Folders never reference stored content.
func NewFolder(userID, name string, parentID ParentID, isPublic bool) *Node {
	return &Node{
		UserID:    userID,
		Name:      name,
		Type:      NodeTypeFolder,
		IsPublic:  isPublic,
		ParentID:  normalizeParent(parentID),
		CreatedAt: time.Now(),
	}
}

// NewContentNode builds a file or image node stored at location.
func NewContentNode(userID, name string, nodeType NodeType, parentID ParentID, isPublic bool, location string) (*Node, error) {
	if !nodeType.HasContent() {
		return nil, fmt.Errorf("node type %q cannot hold content", nodeType)
	}
	if location == "" {
		return nil, errors.New("content node requires a location")
	}
	return &Node{
		UserID:    userID,
		Name:      name,
		Type:      nodeType,
		IsPublic:  isPublic,
		ParentID:  normalizeParent(parentID),
		LocalPath: &location,
		CreatedAt: time.Now(),
	}, nil
}

// Location returns where the node's content lives in the content store.
func (n *Node) Location() (string, error) {
	if !n.Type.HasContent() || n.LocalPath == nil || *n.LocalPath == "" {
		return "", ErrNoContent
	}
	return *n.LocalPath, nil
}

func (n *Node) OwnedBy(userID string) bool {
	return userID != "" && n.UserID == userID
}

// ReadableBy reports whether userID (empty for anonymous callers) may read the node.
func (n *Node) ReadableBy(userID string) bool {
	return n.IsPublic || n.OwnedBy(userID)
}

func normalizeParent(p ParentID) ParentID {
	if p.IsRoot() {
		return RootParentID
	}
	return p
}
