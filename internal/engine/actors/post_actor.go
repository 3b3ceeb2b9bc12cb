package actors

import (
	"log"
	"time"

	stdctx "context"

	"quartier-watch/internal/models"
	"quartier-watch/internal/quota"
	"quartier-watch/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for post operations
type (
	CreatePostMsg struct {
		AuthorID   uuid.UUID
		AuthorName string
		Quartier   string
		Content    string
		Radius     models.Radius
	}

	GetPostMsg struct {
		PostID uuid.UUID
	}

	GetQuartierPostsMsg struct {
		Quartier string
	}

	LikePostMsg struct {
		PostID uuid.UUID
		UserID uuid.UUID
	}

	DeletePostMsg struct {
		PostID    uuid.UUID
		ActorID   uuid.UUID
		ActorName string
		IsAdmin   bool
	}

	GetPostQuotaMsg struct {
		AuthorID uuid.UUID
	}
)

// LikeResult is the reply to a like toggle.
type LikeResult struct {
	Post  *models.Post
	Liked bool
}

// PostStore is the persistence the post actor needs.
type PostStore interface {
	SavePost(ctx stdctx.Context, post *models.Post) error
	GetPost(ctx stdctx.Context, id uuid.UUID) (*models.Post, error)
	GetPostsByQuartier(ctx stdctx.Context, quartier string) ([]*models.Post, error)
	UpdatePostLikes(ctx stdctx.Context, postID uuid.UUID, likes []uuid.UUID) error
	DeletePost(ctx stdctx.Context, postID uuid.UUID) error
	DeleteCommentTreeByPost(ctx stdctx.Context, postID uuid.UUID) error
	InsertDeletionLog(ctx stdctx.Context, entry *models.DeletionLog) error
}

// PostActor handles post creation, likes and deletion. A single actor is
// enough here: the like toggle is a read-modify-write per post, and
// serializing all of them through one mailbox keeps the set and counter
// consistent without per-post children.
type PostActor struct {
	store   PostStore
	limiter *quota.Limiter
	metrics *utils.MetricsCollector
}

func NewPostActor(store PostStore, limiter *quota.Limiter, metrics *utils.MetricsCollector) actor.Actor {
	return &PostActor{
		store:   store,
		limiter: limiter,
		metrics: metrics,
	}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("PostActor started")

	case *CreatePostMsg:
		a.handleCreate(context, msg)

	case *GetPostMsg:
		ctx := stdctx.Background()
		post, err := a.store.GetPost(ctx, msg.PostID)
		if err != nil {
			context.Respond(toAppError(err, utils.ErrNotFound, "Post not found"))
			return
		}
		context.Respond(post)

	case *GetQuartierPostsMsg:
		ctx := stdctx.Background()
		posts, err := a.store.GetPostsByQuartier(ctx, msg.Quartier)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to list posts", err))
			return
		}
		context.Respond(posts)

	case *LikePostMsg:
		a.handleLike(context, msg)

	case *DeletePostMsg:
		a.handleDelete(context, msg)

	case *GetPostQuotaMsg:
		result := a.limiter.CheckPostQuota(stdctx.Background(), msg.AuthorID)
		context.Respond(&result)

	default:
		log.Printf("PostActor: Unknown message type: %T", msg)
	}
}

func (a *PostActor) handleCreate(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if !models.IsValidQuartier(msg.Quartier) {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Unknown quartier", nil))
		return
	}
	if msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Post content is required", nil))
		return
	}

	quotaResult := a.limiter.CheckPostQuota(ctx, msg.AuthorID)
	if !quotaResult.Allowed {
		context.Respond(utils.NewQuotaExceededError(quotaResult.Used, quotaResult.Limit))
		return
	}

	post := &models.Post{
		ID:         uuid.New(),
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Quartier:   msg.Quartier,
		Content:    msg.Content,
		Radius:     msg.Radius,
		Likes:      []uuid.UUID{},
		CreatedAt:  time.Now(),
	}

	if err := a.store.SavePost(ctx, post); err != nil {
		log.Printf("PostActor: Failed to persist post %s: %v", post.ID, err)
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to create post", err))
		return
	}

	log.Printf("PostActor: Created post %s in %s (%d/%d today)", post.ID, post.Quartier, quotaResult.Used+1, quotaResult.Limit)
	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	context.Respond(post)
}

func (a *PostActor) handleLike(context actor.Context, msg *LikePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrNotFound, "Post not found"))
		return
	}

	liked := post.ToggleLike(msg.UserID)
	if err := a.store.UpdatePostLikes(ctx, post.ID, post.Likes); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update likes", err))
		return
	}

	a.metrics.AddOperationLatency("like_post", time.Since(startTime))
	context.Respond(&LikeResult{Post: post, Liked: liked})
}

func (a *PostActor) handleDelete(context actor.Context, msg *DeletePostMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrNotFound, "Post not found"))
		return
	}
	if post.AuthorID != msg.ActorID && !msg.IsAdmin {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the author or an admin can delete a post", nil))
		return
	}

	// Remove the comment tree first so a crash between the two deletes
	// leaves an intact post rather than orphaned comments.
	if err := a.store.DeleteCommentTreeByPost(ctx, post.ID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete comments", err))
		return
	}
	if err := a.store.DeletePost(ctx, post.ID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete post", err))
		return
	}

	logEntry := &models.DeletionLog{
		ID:        uuid.New(),
		Type:      models.DeletedPost,
		ItemID:    post.ID,
		ActorID:   msg.ActorID,
		ActorName: msg.ActorName,
		Snapshot: map[string]interface{}{
			"quartier":      post.Quartier,
			"content":       post.Content,
			"authorId":      post.AuthorID.String(),
			"authorName":    post.AuthorName,
			"likesCount":    post.LikesCount,
			"commentsCount": post.CommentsCount,
		},
		DeletedAt: time.Now(),
	}
	if err := a.store.InsertDeletionLog(ctx, logEntry); err != nil {
		log.Printf("PostActor: Deletion log write failed for post %s: %v", post.ID, err)
	}

	log.Printf("PostActor: Deleted post %s (by %s)", post.ID, msg.ActorName)
	context.Respond(post)
}
