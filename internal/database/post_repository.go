// internal/database/post_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID            string    `bson:"_id"`
	AuthorID      string    `bson:"authorId"`
	AuthorName    string    `bson:"authorName"`
	Quartier      string    `bson:"quartier"`
	Content       string    `bson:"content"`
	Radius        string    `bson:"radius"`
	Likes         []string  `bson:"likes"`
	LikesCount    int       `bson:"likesCount"`
	CommentsCount int       `bson:"commentsCount"`
	CreatedAt     time.Time `bson:"createdAt"`
}

func postToDocument(post *models.Post) *PostDocument {
	return &PostDocument{
		ID:            post.ID.String(),
		AuthorID:      post.AuthorID.String(),
		AuthorName:    post.AuthorName,
		Quartier:      post.Quartier,
		Content:       post.Content,
		Radius:        string(post.Radius),
		Likes:         uuidsToStrings(post.Likes),
		LikesCount:    post.LikesCount,
		CommentsCount: post.CommentsCount,
		CreatedAt:     post.CreatedAt,
	}
}

func postToModel(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}
	likes, err := stringsToUUIDs(doc.Likes)
	if err != nil {
		return nil, fmt.Errorf("invalid like entry: %v", err)
	}

	return &models.Post{
		ID:            id,
		AuthorID:      authorID,
		AuthorName:    doc.AuthorName,
		Quartier:      doc.Quartier,
		Content:       doc.Content,
		Radius:        models.Radius(doc.Radius),
		Likes:         likes,
		LikesCount:    doc.LikesCount,
		CommentsCount: doc.CommentsCount,
		CreatedAt:     doc.CreatedAt,
	}, nil
}

// SavePost creates or updates a post.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := postToDocument(post)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": post.ID.String()}
	update := bson.M{"$set": doc}

	_, err := m.Posts.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", err)
	}
	if err != nil {
		return nil, err
	}

	return postToModel(&doc)
}

// GetPostsByQuartier retrieves all posts in a quartier, newest first.
func (m *MongoDB) GetPostsByQuartier(ctx context.Context, quartier string) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Posts.Find(ctx, bson.M{"quartier": quartier}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	return decodePosts(ctx, cursor)
}

// GetAllPosts retrieves every post, newest first. Used by the admin
// console.
func (m *MongoDB) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	return decodePosts(ctx, cursor)
}

// CountPostsByAuthorSince counts the author's posts created at or after
// the given instant. The daily quota check passes local midnight.
func (m *MongoDB) CountPostsByAuthorSince(ctx context.Context, authorID uuid.UUID, since time.Time) (int64, error) {
	filter := bson.M{
		"authorId":  authorID.String(),
		"createdAt": bson.M{"$gte": since},
	}
	return m.Posts.CountDocuments(ctx, filter)
}

// CountPostsByAuthor counts every post the author has created.
func (m *MongoDB) CountPostsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	return m.Posts.CountDocuments(ctx, bson.M{"authorId": authorID.String()})
}

// UpdatePostLikes replaces the like set and its derived count.
func (m *MongoDB) UpdatePostLikes(ctx context.Context, postID uuid.UUID, likes []uuid.UUID) error {
	filter := bson.M{"_id": postID.String()}
	update := bson.M{"$set": bson.M{
		"likes":      uuidsToStrings(likes),
		"likesCount": len(likes),
	}}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// UpdatePostCommentsCount sets the denormalized comment counter. Callers
// recompute the live count (comments plus replies) after every mutation.
func (m *MongoDB) UpdatePostCommentsCount(ctx context.Context, postID uuid.UUID, count int) error {
	filter := bson.M{"_id": postID.String()}
	update := bson.M{"$set": bson.M{"commentsCount": count}}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// DeletePost removes a post. Comment/reply cascade and the deletion log
// are the PostActor's responsibility.
func (m *MongoDB) DeletePost(ctx context.Context, postID uuid.UUID) error {
	result, err := m.Posts.DeleteOne(ctx, bson.M{"_id": postID.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// SumLikesByAuthor totals the likes received across the author's posts.
func (m *MongoDB) SumLikesByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"authorId": authorID.String()}},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$likesCount"}}},
	}

	cursor, err := m.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate likes: %v", err)
	}
	defer cursor.Close(ctx)

	var row struct {
		Total int64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&row); err != nil {
			return 0, err
		}
	}
	return row.Total, cursor.Err()
}

func decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]*models.Post, error) {
	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		post, err := postToModel(&doc)
		if err != nil {
			continue
		}
		posts = append(posts, post)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration failed: %v", err)
	}
	return posts, nil
}
