package handlers

import (
	"log"
	"net/http"
	"regintel/internal/middleware"
	"regintel/internal/services"
	"regintel/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parentId"`
}

// List GET /api/companies/:id/comments?page&limit
func (h *CommentHandler) List(c *gin.Context) {
	companyID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid company id")
		return
	}

	page := utils.PositiveIntOr(c.Query("page"), 1)
	limit := utils.PositiveIntOr(c.Query("limit"), services.DefaultPageSize)

	result, err := h.comments.ListComments(c.Request.Context(), companyID, page, limit, middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Create POST /api/companies/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		respondError(c, services.ErrUnauthenticated)
		return
	}

	companyID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid company id")
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	comment, err := h.comments.CreateComment(c.Request.Context(), companyID, userID, req.Content, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// Delete DELETE /api/companies/:id/comments?commentId=
//
// A comment that is missing or owned by someone else still reports success;
// the no-op is only logged.
func (h *CommentHandler) Delete(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		respondError(c, services.ErrUnauthenticated)
		return
	}

	if _, ok := utils.ParseID(c.Param("id")); !ok {
		badRequest(c, "Invalid company id")
		return
	}

	commentID, ok := utils.ParseID(c.Query("commentId"))
	if !ok {
		badRequest(c, "Comment ID is required")
		return
	}

	outcome, err := h.comments.DeleteComment(c.Request.Context(), commentID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if outcome == services.NotOwnedOrMissing {
		log.Printf("[Comment] delete of comment %d by user %d matched no owned row", commentID, userID)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Approve POST /api/comments/:id/approve
func (h *CommentHandler) Approve(c *gin.Context) {
	commentID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid comment id")
		return
	}

	if err := h.comments.ApproveComment(c.Request.Context(), commentID, middleware.CurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
