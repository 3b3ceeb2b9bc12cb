package actors

import (
	"log"
	"time"

	stdctx "context"

	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for comment and reply operations
type (
	CreateCommentMsg struct {
		PostID     uuid.UUID
		AuthorID   uuid.UUID
		AuthorName string
		Body       string
	}

	CreateReplyMsg struct {
		CommentID  uuid.UUID
		AuthorID   uuid.UUID
		AuthorName string
		Body       string
	}

	GetPostCommentsMsg struct {
		PostID uuid.UUID
	}

	GetCommentRepliesMsg struct {
		CommentID uuid.UUID
	}

	LikeCommentMsg struct {
		CommentID uuid.UUID
		UserID    uuid.UUID
	}

	LikeReplyMsg struct {
		ReplyID uuid.UUID
		UserID  uuid.UUID
	}

	DeleteCommentMsg struct {
		CommentID uuid.UUID
		ActorID   uuid.UUID
		ActorName string
		IsAdmin   bool
	}

	DeleteReplyMsg struct {
		ReplyID   uuid.UUID
		ActorID   uuid.UUID
		ActorName string
		IsAdmin   bool
	}
)

// CommentLikeResult is the reply to a comment or reply like toggle.
type CommentLikeResult struct {
	Comment *models.Comment
	Reply   *models.Reply
	Liked   bool
}

// CommentStore is the persistence the comment actor needs.
type CommentStore interface {
	GetPost(ctx stdctx.Context, id uuid.UUID) (*models.Post, error)
	SaveComment(ctx stdctx.Context, comment *models.Comment) error
	GetComment(ctx stdctx.Context, id uuid.UUID) (*models.Comment, error)
	GetCommentsByPost(ctx stdctx.Context, postID uuid.UUID) ([]*models.Comment, error)
	DeleteComment(ctx stdctx.Context, commentID uuid.UUID) error
	SaveReply(ctx stdctx.Context, reply *models.Reply) error
	GetReply(ctx stdctx.Context, id uuid.UUID) (*models.Reply, error)
	GetRepliesByComment(ctx stdctx.Context, commentID uuid.UUID) ([]*models.Reply, error)
	DeleteReply(ctx stdctx.Context, replyID uuid.UUID) error
	DeleteRepliesByComment(ctx stdctx.Context, commentID uuid.UUID) (int64, error)
	UpdateCommentLikes(ctx stdctx.Context, commentID uuid.UUID, likes []uuid.UUID) error
	UpdateReplyLikes(ctx stdctx.Context, replyID uuid.UUID, likes []uuid.UUID) error
	CountCommentTree(ctx stdctx.Context, postID uuid.UUID) (int, error)
	UpdatePostCommentsCount(ctx stdctx.Context, postID uuid.UUID, count int) error
	InsertDeletionLog(ctx stdctx.Context, entry *models.DeletionLog) error
}

// CommentActor handles the comment tree under posts. Every mutation
// recomputes the parent post's denormalized counter from a live count
// instead of incrementing, so the counter self-heals after any partial
// failure.
type CommentActor struct {
	store   CommentStore
	metrics *utils.MetricsCollector
}

func NewCommentActor(store CommentStore, metrics *utils.MetricsCollector) actor.Actor {
	return &CommentActor{
		store:   store,
		metrics: metrics,
	}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("CommentActor started")

	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)

	case *CreateReplyMsg:
		a.handleCreateReply(context, msg)

	case *GetPostCommentsMsg:
		ctx := stdctx.Background()
		comments, err := a.store.GetCommentsByPost(ctx, msg.PostID)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to list comments", err))
			return
		}
		context.Respond(comments)

	case *GetCommentRepliesMsg:
		ctx := stdctx.Background()
		replies, err := a.store.GetRepliesByComment(ctx, msg.CommentID)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to list replies", err))
			return
		}
		context.Respond(replies)

	case *LikeCommentMsg:
		a.handleLikeComment(context, msg)

	case *LikeReplyMsg:
		a.handleLikeReply(context, msg)

	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)

	case *DeleteReplyMsg:
		a.handleDeleteReply(context, msg)

	default:
		log.Printf("CommentActor: Unknown message type: %T", msg)
	}
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.Body == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Comment body is required", nil))
		return
	}
	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrNotFound, "Post not found"))
		return
	}

	comment := &models.Comment{
		ID:         uuid.New(),
		PostID:     post.ID,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Body:       msg.Body,
		Likes:      []uuid.UUID{},
		CreatedAt:  time.Now(),
	}

	if err := a.store.SaveComment(ctx, comment); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to create comment", err))
		return
	}

	a.syncCommentCount(ctx, post.ID)
	a.metrics.AddOperationLatency("create_comment", time.Since(startTime))
	context.Respond(comment)
}

func (a *CommentActor) handleCreateReply(context actor.Context, msg *CreateReplyMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.Body == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Reply body is required", nil))
		return
	}
	parent, err := a.store.GetComment(ctx, msg.CommentID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrNotFound, "Comment not found"))
		return
	}

	reply := &models.Reply{
		ID:         uuid.New(),
		PostID:     parent.PostID,
		CommentID:  parent.ID,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Body:       msg.Body,
		Likes:      []uuid.UUID{},
		CreatedAt:  time.Now(),
	}

	if err := a.store.SaveReply(ctx, reply); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to create reply", err))
		return
	}

	a.syncCommentCount(ctx, parent.PostID)
	a.metrics.AddOperationLatency("create_reply", time.Since(startTime))
	context.Respond(reply)
}

func (a *CommentActor) handleLikeComment(context actor.Context, msg *LikeCommentMsg) {
	ctx := stdctx.Background()

	comment, err := a.store.GetComment(ctx, msg.CommentID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrNotFound, "Comment not found"))
		return
	}

	liked := comment.ToggleLike(msg.UserID)
	if err := a.store.UpdateCommentLikes(ctx, comment.ID, comment.Likes); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update likes", err))
		return
	}
	context.Respond(&CommentLikeResult{Comment: comment, Liked: liked})
}

func (a *CommentActor) handleLikeReply(context actor.Context, msg *LikeReplyMsg) {
	ctx := stdctx.Background()

	reply, err := a.store.GetReply(ctx, msg.ReplyID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrNotFound, "Reply not found"))
		return
	}

	liked := reply.ToggleLike(msg.UserID)
	if err := a.store.UpdateReplyLikes(ctx, reply.ID, reply.Likes); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update likes", err))
		return
	}
	context.Respond(&CommentLikeResult{Reply: reply, Liked: liked})
}

func (a *CommentActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	ctx := stdctx.Background()

	comment, err := a.store.GetComment(ctx, msg.CommentID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrNotFound, "Comment not found"))
		return
	}
	if comment.AuthorID != msg.ActorID && !msg.IsAdmin {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the author or an admin can delete a comment", nil))
		return
	}

	if _, err := a.store.DeleteRepliesByComment(ctx, comment.ID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete replies", err))
		return
	}
	if err := a.store.DeleteComment(ctx, comment.ID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete comment", err))
		return
	}

	a.auditDelete(ctx, models.DeletedComment, comment.ID, msg.ActorID, msg.ActorName, map[string]interface{}{
		"postId":     comment.PostID.String(),
		"body":       comment.Body,
		"authorId":   comment.AuthorID.String(),
		"authorName": comment.AuthorName,
	})
	a.syncCommentCount(ctx, comment.PostID)
	context.Respond(comment)
}

func (a *CommentActor) handleDeleteReply(context actor.Context, msg *DeleteReplyMsg) {
	ctx := stdctx.Background()

	reply, err := a.store.GetReply(ctx, msg.ReplyID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrNotFound, "Reply not found"))
		return
	}
	if reply.AuthorID != msg.ActorID && !msg.IsAdmin {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the author or an admin can delete a reply", nil))
		return
	}

	if err := a.store.DeleteReply(ctx, reply.ID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete reply", err))
		return
	}

	a.auditDelete(ctx, models.DeletedReply, reply.ID, msg.ActorID, msg.ActorName, map[string]interface{}{
		"postId":     reply.PostID.String(),
		"commentId":  reply.CommentID.String(),
		"body":       reply.Body,
		"authorId":   reply.AuthorID.String(),
		"authorName": reply.AuthorName,
	})
	a.syncCommentCount(ctx, reply.PostID)
	context.Respond(reply)
}

func (a *CommentActor) syncCommentCount(ctx stdctx.Context, postID uuid.UUID) {
	count, err := a.store.CountCommentTree(ctx, postID)
	if err != nil {
		log.Printf("CommentActor: Comment count query failed for post %s: %v", postID, err)
		return
	}
	if err := a.store.UpdatePostCommentsCount(ctx, postID, count); err != nil {
		log.Printf("CommentActor: Comment counter update failed for post %s: %v", postID, err)
	}
}

func (a *CommentActor) auditDelete(ctx stdctx.Context, itemType string, itemID, actorID uuid.UUID, actorName string, snapshot map[string]interface{}) {
	entry := &models.DeletionLog{
		ID:        uuid.New(),
		Type:      itemType,
		ItemID:    itemID,
		ActorID:   actorID,
		ActorName: actorName,
		Snapshot:  snapshot,
		DeletedAt: time.Now(),
	}
	if err := a.store.InsertDeletionLog(ctx, entry); err != nil {
		log.Printf("CommentActor: Deletion log write failed for %s %s: %v", itemType, itemID, err)
	}
}
