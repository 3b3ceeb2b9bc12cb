package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a top-level reaction to a post. Replies reference a parent
// comment and live in their own collection; both count toward the post's
// denormalized comment counter.
type Comment struct {
	ID         uuid.UUID   `json:"id"`
	PostID     uuid.UUID   `json:"postId"`
	AuthorID   uuid.UUID   `json:"authorId"`
	AuthorName string      `json:"authorName"`
	Body       string      `json:"body"`
	Likes      []uuid.UUID `json:"likes"`
	LikesCount int         `json:"likesCount"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// ToggleLike adds or removes userID, keeping the count in sync. Returns
// the new liked state.
func (c *Comment) ToggleLike(userID uuid.UUID) bool {
	for i, id := range c.Likes {
		if id == userID {
			c.Likes = append(c.Likes[:i], c.Likes[i+1:]...)
			c.LikesCount = len(c.Likes)
			return false
		}
	}
	c.Likes = append(c.Likes, userID)
	c.LikesCount = len(c.Likes)
	return true
}

type Reply struct {
	ID         uuid.UUID   `json:"id"`
	PostID     uuid.UUID   `json:"postId"`
	CommentID  uuid.UUID   `json:"commentId"`
	AuthorID   uuid.UUID   `json:"authorId"`
	AuthorName string      `json:"authorName"`
	Body       string      `json:"body"`
	Likes      []uuid.UUID `json:"likes"`
	LikesCount int         `json:"likesCount"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// ToggleLike on a reply mirrors the comment behavior.
func (r *Reply) ToggleLike(userID uuid.UUID) bool {
	for i, id := range r.Likes {
		if id == userID {
			r.Likes = append(r.Likes[:i], r.Likes[i+1:]...)
			r.LikesCount = len(r.Likes)
			return false
		}
	}
	r.Likes = append(r.Likes, userID)
	r.LikesCount = len(r.Likes)
	return true
}
