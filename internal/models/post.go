package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID            uuid.UUID   `json:"id"`
	AuthorID      uuid.UUID   `json:"authorId"`
	AuthorName    string      `json:"authorName"`
	Quartier      string      `json:"quartier"`
	Content       string      `json:"content"`
	Radius        Radius      `json:"radius"`
	Likes         []uuid.UUID `json:"likes"`
	LikesCount    int         `json:"likesCount"`
	CommentsCount int         `json:"commentsCount"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// IsLikedBy reports whether userID is in the like set.
func (p *Post) IsLikedBy(userID uuid.UUID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike adds or removes userID from the like set and keeps the
// derived count equal to the set size. Returns the new liked state.
func (p *Post) ToggleLike(userID uuid.UUID) bool {
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			p.LikesCount = len(p.Likes)
			return false
		}
	}
	p.Likes = append(p.Likes, userID)
	p.LikesCount = len(p.Likes)
	return true
}
