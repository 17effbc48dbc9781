package models

import (
	"time"
)

const (
	VoteUp   = 1
	VoteDown = -1
)

// CommentVote holds at most one row per (comment, user); the unique index
// is the conflict target for vote upserts.
type CommentVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_user_vote" json:"commentId"`
	Comment   Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_user_vote;index" json:"userId"`
	VoteType  int       `gorm:"not null" json:"voteType"` // 1 or -1
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
