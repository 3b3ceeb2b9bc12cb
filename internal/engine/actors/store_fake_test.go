package actors

import (
	"context"
	"sync"
	"time"

	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"

	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for the MongoDB layer that mirrors
// its conditional-update semantics, so actor tests exercise the same
// contract the real store provides.
type fakeStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*models.User
	alerts       map[uuid.UUID]*models.Alert
	posts        map[uuid.UUID]*models.Post
	comments     map[uuid.UUID]*models.Comment
	replies      map[uuid.UUID]*models.Reply
	deletionLogs []*models.DeletionLog

	failVotes bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uuid.UUID]*models.User),
		alerts:   make(map[uuid.UUID]*models.Alert),
		posts:    make(map[uuid.UUID]*models.Post),
		comments: make(map[uuid.UUID]*models.Comment),
		replies:  make(map[uuid.UUID]*models.Reply),
	}
}

// --- users ---

func (f *fakeStore) SaveUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

// --- alerts ---

func (f *fakeStore) SaveAlert(ctx context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *alert
	f.alerts[alert.ID] = &copied
	return nil
}

func (f *fakeStore) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok {
		return nil, utils.NewAlertNotFoundError(id.String())
	}
	copied := *alert
	return &copied, nil
}

func (f *fakeStore) GetAlertsByQuartier(ctx context.Context, quartier string) ([]*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var alerts []*models.Alert
	for _, alert := range f.alerts {
		if alert.Quartier == quartier {
			copied := *alert
			alerts = append(alerts, &copied)
		}
	}
	return alerts, nil
}

func (f *fakeStore) RecordConsensusVote(ctx context.Context, alertID, userID uuid.UUID, confirm bool) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failVotes {
		return nil, utils.NewAppError(utils.ErrDatabase, "vote write failed", nil)
	}
	alert, ok := f.alerts[alertID]
	if !ok {
		return nil, utils.NewAlertNotFoundError(alertID.String())
	}
	if alert.HasVoted(userID) {
		return nil, utils.NewAppError(utils.ErrAlreadyVoted, "User has already confirmed or disputed this alert", nil)
	}
	if confirm {
		alert.ConfirmedBy = append(alert.ConfirmedBy, userID)
		alert.ConfirmCount = len(alert.ConfirmedBy)
	} else {
		alert.FalseBy = append(alert.FalseBy, userID)
		alert.FalseCount = len(alert.FalseBy)
	}
	copied := *alert
	return &copied, nil
}

func (f *fakeStore) PromoteAlertStatus(ctx context.Context, alertID uuid.UUID, to models.AlertStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[alertID]
	if !ok {
		return false, nil
	}
	counter := alert.FalseCount
	if to == models.StatusConfirmed {
		counter = alert.ConfirmCount
	}
	if alert.Status != models.StatusPending || counter < models.ConsensusThreshold {
		return false, nil
	}
	alert.Status = to
	return true, nil
}

func (f *fakeStore) UpdateAlertStatus(ctx context.Context, alertID uuid.UUID, status models.AlertStatus, adminID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[alertID]
	if !ok {
		return utils.NewAlertNotFoundError(alertID.String())
	}
	alert.Status = status
	return nil
}

func (f *fakeStore) DeleteAlert(ctx context.Context, alertID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.alerts[alertID]; !ok {
		return utils.NewAlertNotFoundError(alertID.String())
	}
	delete(f.alerts, alertID)
	return nil
}

func (f *fakeStore) GetLatestAlertByAuthor(ctx context.Context, authorID uuid.UUID) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Alert
	for _, alert := range f.alerts {
		if alert.AuthorID != authorID {
			continue
		}
		if latest == nil || alert.CreatedAt.After(latest.CreatedAt) {
			latest = alert
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

// --- posts ---

func (f *fakeStore) SavePost(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakeStore) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	copied := *post
	return &copied, nil
}

func (f *fakeStore) GetPostsByQuartier(ctx context.Context, quartier string) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var posts []*models.Post
	for _, post := range f.posts {
		if post.Quartier == quartier {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	return posts, nil
}

func (f *fakeStore) CountPostsByAuthorSince(ctx context.Context, authorID uuid.UUID, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, post := range f.posts {
		if post.AuthorID == authorID && !post.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) UpdatePostLikes(ctx context.Context, postID uuid.UUID, likes []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	post.Likes = likes
	post.LikesCount = len(likes)
	return nil
}

func (f *fakeStore) UpdatePostCommentsCount(ctx context.Context, postID uuid.UUID, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	post.CommentsCount = count
	return nil
}

func (f *fakeStore) DeletePost(ctx context.Context, postID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[postID]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	delete(f.posts, postID)
	return nil
}

// --- comments and replies ---

func (f *fakeStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *comment
	f.comments[comment.ID] = &copied
	return nil
}

func (f *fakeStore) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	copied := *comment
	return &copied, nil
}

func (f *fakeStore) GetCommentsByPost(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var comments []*models.Comment
	for _, comment := range f.comments {
		if comment.PostID == postID {
			copied := *comment
			comments = append(comments, &copied)
		}
	}
	return comments, nil
}

func (f *fakeStore) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[commentID]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	delete(f.comments, commentID)
	return nil
}

func (f *fakeStore) SaveReply(ctx context.Context, reply *models.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *reply
	f.replies[reply.ID] = &copied
	return nil
}

func (f *fakeStore) GetReply(ctx context.Context, id uuid.UUID) (*models.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply, ok := f.replies[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Reply not found", nil)
	}
	copied := *reply
	return &copied, nil
}

func (f *fakeStore) GetRepliesByComment(ctx context.Context, commentID uuid.UUID) ([]*models.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var replies []*models.Reply
	for _, reply := range f.replies {
		if reply.CommentID == commentID {
			copied := *reply
			replies = append(replies, &copied)
		}
	}
	return replies, nil
}

func (f *fakeStore) DeleteReply(ctx context.Context, replyID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.replies[replyID]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "Reply not found", nil)
	}
	delete(f.replies, replyID)
	return nil
}

func (f *fakeStore) DeleteRepliesByComment(ctx context.Context, commentID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, reply := range f.replies {
		if reply.CommentID == commentID {
			delete(f.replies, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) DeleteCommentTreeByPost(ctx context.Context, postID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, comment := range f.comments {
		if comment.PostID == postID {
			delete(f.comments, id)
		}
	}
	for id, reply := range f.replies {
		if reply.PostID == postID {
			delete(f.replies, id)
		}
	}
	return nil
}

func (f *fakeStore) CountCommentTree(ctx context.Context, postID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, comment := range f.comments {
		if comment.PostID == postID {
			count++
		}
	}
	for _, reply := range f.replies {
		if reply.PostID == postID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) UpdateCommentLikes(ctx context.Context, commentID uuid.UUID, likes []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[commentID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	comment.Likes = likes
	comment.LikesCount = len(likes)
	return nil
}

func (f *fakeStore) UpdateReplyLikes(ctx context.Context, replyID uuid.UUID, likes []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply, ok := f.replies[replyID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Reply not found", nil)
	}
	reply.Likes = likes
	reply.LikesCount = len(likes)
	return nil
}

// --- audit ---

func (f *fakeStore) InsertDeletionLog(ctx context.Context, entry *models.DeletionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *entry
	f.deletionLogs = append(f.deletionLogs, &copied)
	return nil
}

func (f *fakeStore) logsOfType(itemType string) []*models.DeletionLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var logs []*models.DeletionLog
	for _, entry := range f.deletionLogs {
		if entry.Type == itemType {
			logs = append(logs, entry)
		}
	}
	return logs
}

// testPolicy satisfies quota.Policy with fixed limits.
type testPolicy struct {
	settings models.SystemSettings
}

func (p testPolicy) Current() models.SystemSettings { return p.settings }

func defaultTestPolicy() testPolicy {
	return testPolicy{settings: models.SystemSettings{
		MaxPostsPerDay:       50,
		AlertCooldownMinutes: 30,
	}}
}
