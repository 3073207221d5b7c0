package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/templui/filesmanager/internal/model"
)

type nodeDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Name      string             `bson:"name"`
	Type      string             `bson:"type"`
	IsPublic  bool               `bson:"isPublic"`
	ParentID  string             `bson:"parentId"`
	LocalPath *string            `bson:"localPath,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *nodeDocument) toModel() *model.Node {
	return &model.Node{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Name:      d.Name,
		Type:      model.NodeType(d.Type),
		IsPublic:  d.IsPublic,
		ParentID:  model.ParentID(d.ParentID),
		LocalPath: d.LocalPath,
		CreatedAt: d.CreatedAt,
	}
}

type mongoFileRepository struct {
	files *mongo.Collection
}

// NewMongoFileRepository stores nodes in the "files" collection.
func NewMongoFileRepository(mdb *mongo.Database) FileRepository {
	return &mongoFileRepository{files: mdb.Collection("files")}
}

func (r *mongoFileRepository) Create(ctx context.Context, node *model.Node) error {
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}

	doc := nodeDocument{
		UserID:    node.UserID,
		Name:      node.Name,
		Type:      string(node.Type),
		IsPublic:  node.IsPublic,
		ParentID:  string(node.ParentID),
		LocalPath: node.LocalPath,
		CreatedAt: node.CreatedAt,
	}

	res, err := r.files.InsertOne(ctx, doc)
	if err != nil {
		return err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	node.ID = oid.Hex()
	return nil
}

func (r *mongoFileRepository) ByID(ctx context.Context, id string) (*model.Node, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNodeNotFound
	}

	var doc nodeDocument
	err = r.files.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}

	return doc.toModel(), nil
}

func (r *mongoFileRepository) List(ctx context.Context, filter FileFilter) ([]*model.Node, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("list files: user id is required")
	}

	match := bson.D{{Key: "userId", Value: filter.UserID}}
	if filter.ParentID != nil {
		match = append(match, bson.E{Key: "parentId", Value: string(*filter.ParentID)})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$skip", Value: int64(filter.skip())}},
		{{Key: "$limit", Value: int64(PageSize)}},
		{{Key: "$project", Value: bson.D{{Key: "localPath", Value: 0}}}},
	}

	cursor, err := r.files.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var docs []nodeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	nodes := make([]*model.Node, 0, len(docs))
	for i := range docs {
		nodes = append(nodes, docs[i].toModel())
	}
	return nodes, nil
}

func (r *mongoFileRepository) SetPublic(ctx context.Context, id string, isPublic bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNodeNotFound
	}

	res, err := r.files.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"isPublic": isPublic}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNodeNotFound
	}
	return nil
}

func (r *mongoFileRepository) Count(ctx context.Context) (int64, error) {
	return r.files.CountDocuments(ctx, bson.D{})
}
