// internal/database/comment_repository.go
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

// CommentDocument represents comment data in MongoDB.
type CommentDocument struct {
	ID         string    `bson:"_id"`
	PostID     string    `bson:"postId"`
	AuthorID   string    `bson:"authorId"`
	AuthorName string    `bson:"authorName"`
	Body       string    `bson:"body"`
	Likes      []string  `bson:"likes"`
	LikesCount int       `bson:"likesCount"`
	CreatedAt  time.Time `bson:"createdAt"`
}

// ReplyDocument represents reply data in MongoDB. Replies live in their
// own collection and carry both parent ids.
type ReplyDocument struct {
	ID         string    `bson:"_id"`
	PostID     string    `bson:"postId"`
	CommentID  string    `bson:"commentId"`
	AuthorID   string    `bson:"authorId"`
	AuthorName string    `bson:"authorName"`
	Body       string    `bson:"body"`
	Likes      []string  `bson:"likes"`
	LikesCount int       `bson:"likesCount"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func commentToModel(doc *CommentDocument) (*models.Comment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID: %v", err)
	}
	postID, err := uuid.Parse(doc.PostID)
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

	return &models.Comment{
		ID:         id,
		PostID:     postID,
		AuthorID:   authorID,
		AuthorName: doc.AuthorName,
		Body:       doc.Body,
		Likes:      likes,
		LikesCount: doc.LikesCount,
		CreatedAt:  doc.CreatedAt,
	}, nil
}

func replyToModel(doc *ReplyDocument) (*models.Reply, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid reply ID: %v", err)
	}
	postID, err := uuid.Parse(doc.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}
	commentID, err := uuid.Parse(doc.CommentID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}
	likes, err := stringsToUUIDs(doc.Likes)
	if err != nil {
		return nil, fmt.Errorf("invalid like entry: %v", err)
	}

	return &models.Reply{
		ID:         id,
		PostID:     postID,
		CommentID:  commentID,
		AuthorID:   authorID,
		AuthorName: doc.AuthorName,
		Body:       doc.Body,
		Likes:      likes,
		LikesCount: doc.LikesCount,
		CreatedAt:  doc.CreatedAt,
	}, nil
}

// SaveComment creates or updates a comment.
func (m *MongoDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	doc := &CommentDocument{
		ID:         comment.ID.String(),
		PostID:     comment.PostID.String(),
		AuthorID:   comment.AuthorID.String(),
		AuthorName: comment.AuthorName,
		Body:       comment.Body,
		Likes:      uuidsToStrings(comment.Likes),
		LikesCount: comment.LikesCount,
		CreatedAt:  comment.CreatedAt,
	}

	opts := options.Update().SetUpsert(true)
	_, err := m.Comments.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

// SaveReply creates or updates a reply.
func (m *MongoDB) SaveReply(ctx context.Context, reply *models.Reply) error {
	doc := &ReplyDocument{
		ID:         reply.ID.String(),
		PostID:     reply.PostID.String(),
		CommentID:  reply.CommentID.String(),
		AuthorID:   reply.AuthorID.String(),
		AuthorName: reply.AuthorName,
		Body:       reply.Body,
		Likes:      uuidsToStrings(reply.Likes),
		LikesCount: reply.LikesCount,
		CreatedAt:  reply.CreatedAt,
	}

	opts := options.Update().SetUpsert(true)
	_, err := m.Replies.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

// GetComment retrieves a comment by its ID.
func (m *MongoDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var doc CommentDocument

	err := m.Comments.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", err)
	}
	if err != nil {
		return nil, err
	}

	return commentToModel(&doc)
}

// GetReply retrieves a reply by its ID.
func (m *MongoDB) GetReply(ctx context.Context, id uuid.UUID) (*models.Reply, error) {
	var doc ReplyDocument

	err := m.Replies.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Reply not found", err)
	}
	if err != nil {
		return nil, err
	}

	return replyToModel(&doc)
}

// GetCommentsByPost retrieves a post's comments, newest first.
func (m *MongoDB) GetCommentsByPost(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Comments.Find(ctx, bson.M{"postId": postID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	var comments []*models.Comment
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		comment, err := commentToModel(&doc)
		if err != nil {
			continue
		}
		comments = append(comments, comment)
	}
	return comments, cursor.Err()
}

// GetRepliesByComment retrieves a comment's replies, oldest first so
// threads read top to bottom.
func (m *MongoDB) GetRepliesByComment(ctx context.Context, commentID uuid.UUID) ([]*models.Reply, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Replies.Find(ctx, bson.M{"commentId": commentID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	var replies []*models.Reply
	for cursor.Next(ctx) {
		var doc ReplyDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		reply, err := replyToModel(&doc)
		if err != nil {
			continue
		}
		replies = append(replies, reply)
	}
	return replies, cursor.Err()
}

// DeleteComment removes a single comment.
func (m *MongoDB) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	result, err := m.Comments.DeleteOne(ctx, bson.M{"_id": commentID.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// DeleteReply removes a single reply.
func (m *MongoDB) DeleteReply(ctx context.Context, replyID uuid.UUID) error {
	result, err := m.Replies.DeleteOne(ctx, bson.M{"_id": replyID.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Reply not found", nil)
	}
	return nil
}

// DeleteRepliesByComment removes every reply under a comment.
func (m *MongoDB) DeleteRepliesByComment(ctx context.Context, commentID uuid.UUID) (int64, error) {
	result, err := m.Replies.DeleteMany(ctx, bson.M{"commentId": commentID.String()})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// DeleteCommentTreeByPost removes every comment and reply under a post,
// for the post-deletion cascade.
func (m *MongoDB) DeleteCommentTreeByPost(ctx context.Context, postID uuid.UUID) error {
	if _, err := m.Comments.DeleteMany(ctx, bson.M{"postId": postID.String()}); err != nil {
		return err
	}
	_, err := m.Replies.DeleteMany(ctx, bson.M{"postId": postID.String()})
	return err
}

// CountCommentTree returns the live comment-plus-reply count for a post,
// the value the denormalized post counter must equal.
func (m *MongoDB) CountCommentTree(ctx context.Context, postID uuid.UUID) (int, error) {
	comments, err := m.Comments.CountDocuments(ctx, bson.M{"postId": postID.String()})
	if err != nil {
		return 0, err
	}
	replies, err := m.Replies.CountDocuments(ctx, bson.M{"postId": postID.String()})
	if err != nil {
		return 0, err
	}
	return int(comments + replies), nil
}

// UpdateCommentLikes replaces a comment's like set and derived count.
func (m *MongoDB) UpdateCommentLikes(ctx context.Context, commentID uuid.UUID, likes []uuid.UUID) error {
	filter := bson.M{"_id": commentID.String()}
	update := bson.M{"$set": bson.M{
		"likes":      uuidsToStrings(likes),
		"likesCount": len(likes),
	}}

	result, err := m.Comments.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// UpdateReplyLikes replaces a reply's like set and derived count.
func (m *MongoDB) UpdateReplyLikes(ctx context.Context, replyID uuid.UUID, likes []uuid.UUID) error {
	filter := bson.M{"_id": replyID.String()}
	update := bson.M{"$set": bson.M{
		"likes":      uuidsToStrings(likes),
		"likesCount": len(likes),
	}}

	result, err := m.Replies.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Reply not found", nil)
	}
	return nil
}
