package handlers

import (
	"net/http"
	"regintel/internal/middleware"
	"regintel/internal/services"
	"regintel/internal/utils"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

type voteRequest struct {
	VoteType int `json:"voteType"`
}

// Vote POST /api/comments/:id/vote; same direction twice removes the vote
func (h *VoteHandler) Vote(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		respondError(c, services.ErrUnauthenticated)
		return
	}

	commentID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid comment id")
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid vote type")
		return
	}
	if req.VoteType != 1 && req.VoteType != -1 {
		badRequest(c, "Invalid vote type")
		return
	}

	outcome, err := h.votes.ApplyVote(c.Request.Context(), commentID, userID, req.VoteType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Current GET /api/comments/:id/vote
func (h *VoteHandler) Current(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		respondError(c, services.ErrUnauthenticated)
		return
	}

	commentID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid comment id")
		return
	}

	lookup, err := h.votes.FindVote(c.Request.Context(), commentID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	direction := 0
	if lookup.Found {
		direction = lookup.Direction
	}
	c.JSON(http.StatusOK, gin.H{"voteType": direction})
}
