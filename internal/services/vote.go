package services

import (
	"context"
	"errors"
	"regintel/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteOutcome is the caller's vote state after ApplyVote; Direction 0 means
// the vote was toggled off.
type VoteOutcome struct {
	Direction int `json:"voteType"`
}

// VoteLookup is the stored vote for a (comment, user) pair: either not found
// or found with its direction.
type VoteLookup struct {
	Found     bool
	Direction int
}

type VoteService struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewVoteService(db *gorm.DB, timeout time.Duration) *VoteService {
	return &VoteService{db: db, timeout: timeout}
}

// ApplyVote records direction for the user on the comment. Re-submitting the
// direction already held removes the vote; the opposite direction replaces it.
//
// The same-direction delete is conditional on the stored value and the
// insert-or-update is a single upsert on the (comment_id, user_id) unique
// index, so concurrent requests can never produce two rows.
func (s *VoteService) ApplyVote(ctx context.Context, commentID, userID uint, direction int) (VoteOutcome, error) {
	if userID == 0 {
		return VoteOutcome{}, ErrUnauthenticated
	}
	if direction != models.VoteUp && direction != models.VoteDown {
		return VoteOutcome{}, invalidArg("vote direction %d", direction)
	}
	if commentID == 0 {
		return VoteOutcome{}, invalidArg("missing comment id")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var outcome VoteOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 相同方向则取消投票
		res := tx.Where("comment_id = ? AND user_id = ? AND vote_type = ?", commentID, userID, direction).
			Delete(&models.CommentVote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			outcome = VoteOutcome{Direction: 0}
			return nil
		}

		// 2. 新增或改变方向
		vote := models.CommentVote{
			CommentID: commentID,
			UserID:    userID,
			VoteType:  direction,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
		}).Create(&vote).Error; err != nil {
			return err
		}
		outcome = VoteOutcome{Direction: direction}
		return nil
	})
	if err != nil {
		return VoteOutcome{}, storageErr("apply vote", err)
	}
	return outcome, nil
}

// FindVote returns the user's stored vote on a comment, if any.
func (s *VoteService) FindVote(ctx context.Context, commentID, userID uint) (VoteLookup, error) {
	if userID == 0 {
		return VoteLookup{}, ErrUnauthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var vote models.CommentVote
	err := s.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return VoteLookup{}, nil
	}
	if err != nil {
		return VoteLookup{}, storageErr("find vote", err)
	}
	return VoteLookup{Found: true, Direction: vote.VoteType}, nil
}

// userVotes maps comment id to direction for the given ids.
func userVotes(tx *gorm.DB, userID uint, commentIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int)
	if userID == 0 || len(commentIDs) == 0 {
		return out, nil
	}

	var votes []models.CommentVote
	if err := tx.Where("user_id = ? AND comment_id IN ?", userID, commentIDs).Find(&votes).Error; err != nil {
		return nil, err
	}
	for _, v := range votes {
		out[v.CommentID] = v.VoteType
	}
	return out, nil
}
