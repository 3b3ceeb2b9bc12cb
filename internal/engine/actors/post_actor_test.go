package actors

import (
	"context"
	"testing"
	"time"

	"quartier-watch/internal/models"
	"quartier-watch/internal/quota"
	"quartier-watch/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnPostActor(store *fakeStore, policy testPolicy) (*actor.ActorSystem, *actor.PID) {
	system := actor.NewActorSystem()
	limiter := quota.NewLimiter(store, policy)
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPostActor(store, limiter, utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props)
}

func createPost(t *testing.T, system *actor.ActorSystem, pid *actor.PID, authorID uuid.UUID) *models.Post {
	t.Helper()
	future := system.Root.RequestFuture(pid, &CreatePostMsg{
		AuthorID:   authorID,
		AuthorName: "Moussa",
		Quartier:   "Gounghin",
		Content:    "Lost keys near the pharmacy",
		Radius:     models.Radius1km,
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	post, ok := result.(*models.Post)
	require.True(t, ok, "expected *models.Post, got %T", result)
	return post
}

func TestCreatePost(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnPostActor(store, defaultTestPolicy())
	defer system.Shutdown()

	post := createPost(t, system, pid, uuid.New())
	assert.Equal(t, "Gounghin", post.Quartier)
	assert.Equal(t, 0, post.LikesCount)

	stored, err := store.GetPost(context.Background(), post.ID)
	assert.NoError(t, err)
	assert.Equal(t, post.Content, stored.Content)
}

func TestCreatePostEnforcesDailyQuota(t *testing.T) {
	store := newFakeStore()
	policy := testPolicy{settings: models.SystemSettings{MaxPostsPerDay: 2, AlertCooldownMinutes: 30}}
	system, pid := spawnPostActor(store, policy)
	defer system.Shutdown()

	authorID := uuid.New()
	createPost(t, system, pid, authorID)
	createPost(t, system, pid, authorID)

	future := system.Root.RequestFuture(pid, &CreatePostMsg{
		AuthorID: authorID,
		Quartier: "Gounghin",
		Content:  "One too many",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected quota rejection, got %T", result)
	assert.Equal(t, utils.ErrQuotaExceeded, appErr.Code)

	// Another author still posts freely.
	createPost(t, system, pid, uuid.New())
}

func TestGetPostQuota(t *testing.T) {
	store := newFakeStore()
	policy := testPolicy{settings: models.SystemSettings{MaxPostsPerDay: 10, AlertCooldownMinutes: 30}}
	system, pid := spawnPostActor(store, policy)
	defer system.Shutdown()

	authorID := uuid.New()
	createPost(t, system, pid, authorID)

	future := system.Root.RequestFuture(pid, &GetPostQuotaMsg{AuthorID: authorID}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	quotaResult, ok := result.(*quota.PostQuotaResult)
	require.True(t, ok)
	assert.True(t, quotaResult.Allowed)
	assert.Equal(t, 1, quotaResult.Used)
	assert.Equal(t, 9, quotaResult.Remaining)
}

func TestLikePostToggles(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnPostActor(store, defaultTestPolicy())
	defer system.Shutdown()

	post := createPost(t, system, pid, uuid.New())
	userID := uuid.New()

	future := system.Root.RequestFuture(pid, &LikePostMsg{PostID: post.ID, UserID: userID}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	like, ok := result.(*LikeResult)
	require.True(t, ok)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.Post.LikesCount)

	// Second toggle removes the like.
	future = system.Root.RequestFuture(pid, &LikePostMsg{PostID: post.ID, UserID: userID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	like, ok = result.(*LikeResult)
	require.True(t, ok)
	assert.False(t, like.Liked)
	assert.Equal(t, 0, like.Post.LikesCount)

	stored, _ := store.GetPost(context.Background(), post.ID)
	assert.Equal(t, 0, stored.LikesCount)
	assert.Empty(t, stored.Likes)
}

func TestDeletePostCascadesAndAudits(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnPostActor(store, defaultTestPolicy())
	defer system.Shutdown()

	authorID := uuid.New()
	post := createPost(t, system, pid, authorID)

	// Seed a comment tree under the post.
	comment := &models.Comment{ID: uuid.New(), PostID: post.ID, AuthorID: uuid.New(), Body: "seen it"}
	require.NoError(t, store.SaveComment(context.Background(), comment))
	reply := &models.Reply{ID: uuid.New(), PostID: post.ID, CommentID: comment.ID, AuthorID: uuid.New(), Body: "me too"}
	require.NoError(t, store.SaveReply(context.Background(), reply))

	future := system.Root.RequestFuture(pid, &DeletePostMsg{
		PostID:    post.ID,
		ActorID:   authorID,
		ActorName: "Moussa",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	_, ok := result.(*models.Post)
	require.True(t, ok, "expected deleted post, got %T", result)

	_, err = store.GetPost(context.Background(), post.ID)
	assert.Error(t, err)
	_, err = store.GetComment(context.Background(), comment.ID)
	assert.Error(t, err)
	_, err = store.GetReply(context.Background(), reply.ID)
	assert.Error(t, err)

	logs := store.logsOfType(models.DeletedPost)
	require.Len(t, logs, 1)
	assert.Equal(t, post.ID, logs[0].ItemID)
}

func TestDeletePostRequiresOwnerOrAdmin(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnPostActor(store, defaultTestPolicy())
	defer system.Shutdown()

	post := createPost(t, system, pid, uuid.New())

	future := system.Root.RequestFuture(pid, &DeletePostMsg{
		PostID:  post.ID,
		ActorID: uuid.New(),
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// An admin who is not the author may delete.
	future = system.Root.RequestFuture(pid, &DeletePostMsg{
		PostID:    post.ID,
		ActorID:   uuid.New(),
		ActorName: "modération",
		IsAdmin:   true,
	}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	_, ok = result.(*models.Post)
	assert.True(t, ok)
}
