package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/filesmanager/internal/model"
)

// PageSize is the number of nodes returned per listing page.
const PageSize = 20

var (
	ErrNodeNotFound = errors.New("file not found")
)

// FileFilter selects nodes for a listing. UserID is mandatory; a nil ParentID
// lists every node of the user regardless of its folder.
type FileFilter struct {
	UserID   string
	ParentID *model.ParentID
	Page     int
}

func (f FileFilter) skip() int {
	if f.Page < 0 {
		return 0
	}
	return f.Page * PageSize
}

type FileRepository interface {
	Create(ctx context.Context, node *model.Node) error
	ByID(ctx context.Context, id string) (*model.Node, error)
	List(ctx context.Context, filter FileFilter) ([]*model.Node, error)
	SetPublic(ctx context.Context, id string, isPublic bool) error
	Count(ctx context.Context) (int64, error)
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

const nodeColumns = `id, user_id, name, type, is_public, parent_id, local_path, created_at`

func (r *fileRepository) Create(ctx context.Context, node *model.Node) error {
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}

	query := `INSERT INTO files (` + nodeColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		node.ID,
		node.UserID,
		node.Name,
		node.Type,
		node.IsPublic,
		node.ParentID,
		node.LocalPath,
		node.CreatedAt,
	)

	return err
}

func (r *fileRepository) ByID(ctx context.Context, id string) (*model.Node, error) {
	node := &model.Node{}
	query := `SELECT ` + nodeColumns + ` FROM files WHERE id = $1`

	err := r.db.GetContext(ctx, node, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}

	return node, nil
}

func (r *fileRepository) List(ctx context.Context, filter FileFilter) ([]*model.Node, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("list files: user id is required")
	}

	conditions := []string{"user_id = $1"}
	args := []any{filter.UserID}
	if filter.ParentID != nil {
		args = append(args, *filter.ParentID)
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", len(args)))
	}
	args = append(args, PageSize, filter.skip())

	query := fmt.Sprintf(`SELECT %s FROM files WHERE %s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		nodeColumns, strings.Join(conditions, " AND "), len(args)-1, len(args))

	nodes := []*model.Node{}
	err := r.db.SelectContext(ctx, &nodes, query, args...)
	if err != nil {
		return nil, err
	}

	return nodes, nil
}

func (r *fileRepository) SetPublic(ctx context.Context, id string, isPublic bool) error {
	query := `UPDATE files SET is_public = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, isPublic, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNodeNotFound
	}

	return nil
}

func (r *fileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM files`)
	return count, err
}
